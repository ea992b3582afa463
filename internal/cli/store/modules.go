package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/travelsystem/tso/internal/cli/session"
)

// DefaultModule is used when the company has nothing enabled
const DefaultModule = "tour"

// ErrModuleNotEnabled is returned when switching to a module the company does
// not have
var ErrModuleNotEnabled = errors.New("module is not enabled for this company")

// Modules tracks which product module the user is working in
type Modules struct {
	api      API
	sessions *session.Store
	logger   zerolog.Logger
}

// NewModules creates a module switcher
func NewModules(api API, sessions *session.Store, logger zerolog.Logger) *Modules {
	return &Modules{api: api, sessions: sessions, logger: logger}
}

// Enabled returns the company's enabled modules in name order, or the default
// module when none is enabled
func (m *Modules) Enabled(ctx context.Context) ([]string, error) {
	resp, err := m.api.MyCompany(ctx)
	if err != nil {
		return nil, err
	}
	return EnabledModules(resp.Company), nil
}

// Active returns the saved module when it is still enabled, otherwise the
// first enabled one
func (m *Modules) Active(ctx context.Context) (string, []string, error) {
	enabled, err := m.Enabled(ctx)
	if err != nil {
		return "", nil, err
	}

	saved, err := m.sessions.ActiveModule(ctx)
	if err != nil {
		return "", nil, err
	}
	for _, name := range enabled {
		if name == saved {
			return saved, enabled, nil
		}
	}
	return enabled[0], enabled, nil
}

// Switch persists module as the active one
func (m *Modules) Switch(ctx context.Context, module string) error {
	enabled, err := m.Enabled(ctx)
	if err != nil {
		return err
	}

	for _, name := range enabled {
		if name == module {
			if err := m.sessions.SetActiveModule(ctx, module); err != nil {
				return err
			}
			m.logger.Info().Str("module", module).Msg("Active module switched")
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrModuleNotEnabled, module)
}

// EnabledModules lists the enabled entries of a company's module flags
func EnabledModules(company session.Company) []string {
	var enabled []string
	for name, on := range company.ModulesEnabled {
		if on {
			enabled = append(enabled, name)
		}
	}
	if len(enabled) == 0 {
		return []string{DefaultModule}
	}
	sort.Strings(enabled)
	return enabled
}
