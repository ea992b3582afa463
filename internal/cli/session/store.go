package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// AdminSession is the staff/operator session
type AdminSession struct {
	Token       string
	User        json.RawMessage
	Company     json.RawMessage
	IsAdminView bool
}

// Authenticated reports whether a token is present
func (s AdminSession) Authenticated() bool {
	return s.Token != ""
}

// CariSession is the partner session
type CariSession struct {
	Token   string
	Cari    json.RawMessage
	Company json.RawMessage
}

// Authenticated reports whether a token is present
func (s CariSession) Authenticated() bool {
	return s.Token != ""
}

// OperatorSlot holds the operator's own session while viewing a customer
type OperatorSlot struct {
	Token   string
	User    json.RawMessage
	Company json.RawMessage
}

// Empty reports whether nothing is saved in the slot
func (s OperatorSlot) Empty() bool {
	return s.Token == ""
}

// Store owns both session domains. It is the only component that reads or
// writes storage keys; clearing one domain never touches the other.
type Store struct {
	kv     KV
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewStore creates a session store over kv
func NewStore(kv KV, logger zerolog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Token returns the bearer token of the given domain, or "" when none is stored
func (s *Store) Token(ctx context.Context, d Domain) (string, error) {
	key := KeyToken
	if d == DomainPartner {
		key = KeyCariToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, _, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load %s token: %w", d, err)
	}
	return v, nil
}

// Admin loads the admin session. A missing session yields a zero value.
func (s *Store) Admin(ctx context.Context) (AdminSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.getAll(ctx, adminKeys)
	if err != nil {
		return AdminSession{}, fmt.Errorf("failed to load admin session: %w", err)
	}
	return AdminSession{
		Token:       values[KeyToken],
		User:        rawOrNil(values[KeyUser]),
		Company:     rawOrNil(values[KeyCompany]),
		IsAdminView: values[KeyIsAdminView] == "true",
	}, nil
}

// SetAdmin replaces the admin session
func (s *Store) SetAdmin(ctx context.Context, sess AdminSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := ""
	if sess.IsAdminView {
		view = "true"
	}
	err := s.putAll(ctx, map[string]string{
		KeyToken:       sess.Token,
		KeyUser:        string(sess.User),
		KeyCompany:     string(sess.Company),
		KeyIsAdminView: view,
	})
	if err != nil {
		return fmt.Errorf("failed to save admin session: %w", err)
	}
	s.logger.Debug().Bool("is_admin_view", sess.IsAdminView).Msg("Admin session stored")
	return nil
}

// ClearAdmin removes exactly the admin keys
func (s *Store) ClearAdmin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, adminKeys...); err != nil {
		return fmt.Errorf("failed to clear admin session: %w", err)
	}
	s.logger.Debug().Msg("Admin session cleared")
	return nil
}

// Cari loads the partner session. A missing session yields a zero value.
func (s *Store) Cari(ctx context.Context) (CariSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.getAll(ctx, partnerKeys)
	if err != nil {
		return CariSession{}, fmt.Errorf("failed to load cari session: %w", err)
	}
	return CariSession{
		Token:   values[KeyCariToken],
		Cari:    rawOrNil(values[KeyCari]),
		Company: rawOrNil(values[KeyCariCompany]),
	}, nil
}

// SetCari replaces the partner session
func (s *Store) SetCari(ctx context.Context, sess CariSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.putAll(ctx, map[string]string{
		KeyCariToken:   sess.Token,
		KeyCari:        string(sess.Cari),
		KeyCariCompany: string(sess.Company),
	})
	if err != nil {
		return fmt.Errorf("failed to save cari session: %w", err)
	}
	s.logger.Debug().Msg("Cari session stored")
	return nil
}

// ClearCari removes exactly the partner keys
func (s *Store) ClearCari(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, partnerKeys...); err != nil {
		return fmt.Errorf("failed to clear cari session: %w", err)
	}
	s.logger.Debug().Msg("Cari session cleared")
	return nil
}

// Clear removes the session of the given domain
func (s *Store) Clear(ctx context.Context, d Domain) error {
	if d == DomainPartner {
		return s.ClearCari(ctx)
	}
	return s.ClearAdmin(ctx)
}

// Operator loads the saved operator slot
func (s *Store) Operator(ctx context.Context) (OperatorSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.getAll(ctx, operatorKeys)
	if err != nil {
		return OperatorSlot{}, fmt.Errorf("failed to load operator session: %w", err)
	}
	return OperatorSlot{
		Token:   values[KeyOperatorToken],
		User:    rawOrNil(values[KeyOperatorUser]),
		Company: rawOrNil(values[KeyOperatorCompany]),
	}, nil
}

// SaveOperator stores the operator's own session for a later return
func (s *Store) SaveOperator(ctx context.Context, slot OperatorSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.putAll(ctx, map[string]string{
		KeyOperatorToken:   slot.Token,
		KeyOperatorUser:    string(slot.User),
		KeyOperatorCompany: string(slot.Company),
	})
	if err != nil {
		return fmt.Errorf("failed to save operator session: %w", err)
	}
	return nil
}

// ClearOperator empties the operator slot
func (s *Store) ClearOperator(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, operatorKeys...); err != nil {
		return fmt.Errorf("failed to clear operator session: %w", err)
	}
	return nil
}

// ActiveModule returns the selected UI module, "" when unset
func (s *Store) ActiveModule(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, err := s.kv.Get(ctx, KeyActiveModule)
	if err != nil {
		return "", fmt.Errorf("failed to load active module: %w", err)
	}
	return v, nil
}

// SetActiveModule persists the selected UI module
func (s *Store) SetActiveModule(ctx context.Context, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, KeyActiveModule, module); err != nil {
		return fmt.Errorf("failed to save active module: %w", err)
	}
	return nil
}

func (s *Store) getAll(ctx context.Context, keys []string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := s.kv.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			values[k] = v
		}
	}
	return values, nil
}

// putAll writes non-empty values and deletes the keys whose value is empty
func (s *Store) putAll(ctx context.Context, values map[string]string) error {
	var empty []string
	for k, v := range values {
		if v == "" {
			empty = append(empty, k)
			continue
		}
		if err := s.kv.Set(ctx, k, v); err != nil {
			return err
		}
	}
	if len(empty) > 0 {
		return s.kv.Delete(ctx, empty...)
	}
	return nil
}

func rawOrNil(v string) json.RawMessage {
	if v == "" {
		return nil
	}
	return json.RawMessage(v)
}
