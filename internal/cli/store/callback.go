package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Checkout return states reported by the callback server
const (
	ReturnPending   = "pending"
	ReturnSuccess   = "success"
	ReturnCancelled = "cancelled"
)

// Return is what the browser came back with after the hosted checkout
type Return struct {
	Module string
	State  string
}

// CallbackServer is the local endpoint the hosted checkout sends the browser
// back to
type CallbackServer struct {
	router  *gin.Engine
	srv     *http.Server
	logger  zerolog.Logger
	baseURL string

	mu      sync.Mutex
	last    Return
	returns chan Return
}

// NewCallbackServer creates a callback server. allowOrigin is the backend
// origin whose hosted pages may read /store/status.
func NewCallbackServer(allowOrigin string, logger zerolog.Logger) *CallbackServer {
	gin.SetMode(gin.ReleaseMode)

	s := &CallbackServer{
		router:  gin.New(),
		logger:  logger,
		last:    Return{State: ReturnPending},
		returns: make(chan Return, 1),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	if allowOrigin != "" {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins: []string{allowOrigin},
			AllowMethods: []string{http.MethodGet},
			MaxAge:       time.Hour,
		}))
	}

	s.router.GET("/store/success", s.success)
	s.router.GET("/store/cancel", s.cancel)
	s.router.GET("/store/status", s.status)

	return s
}

// Start listens on addr ("127.0.0.1:0" picks a free port) and serves in the
// background
func (s *CallbackServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.baseURL = "http://" + ln.Addr().String()
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Checkout callback server error")
		}
	}()

	s.logger.Debug().Str("url", s.baseURL).Msg("Checkout callback server listening")
	return nil
}

// BaseURL returns the server origin once started
func (s *CallbackServer) BaseURL() string {
	return s.baseURL
}

// SuccessURL is where the hosted checkout sends the browser after payment
func (s *CallbackServer) SuccessURL(module string) string {
	return s.baseURL + "/store/success?module=" + url.QueryEscape(module)
}

// CancelURL is where the hosted checkout sends the browser on cancel
func (s *CallbackServer) CancelURL(module string) string {
	return s.baseURL + "/store/cancel?module=" + url.QueryEscape(module)
}

// Returns delivers the first browser return
func (s *CallbackServer) Returns() <-chan Return {
	return s.returns
}

// Shutdown stops the server
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *CallbackServer) success(c *gin.Context) {
	module := c.Query("module")
	s.record(Return{Module: module, State: ReturnSuccess})
	c.String(http.StatusOK, "Payment received. The %s module is being activated, you can return to your terminal.", module)
}

func (s *CallbackServer) cancel(c *gin.Context) {
	s.record(Return{Module: c.Query("module"), State: ReturnCancelled})
	c.String(http.StatusOK, "Checkout cancelled. You can return to your terminal.")
}

func (s *CallbackServer) status(c *gin.Context) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"module": last.Module,
		"state":  last.State,
	})
}

// record keeps the latest return and delivers only the first one
func (s *CallbackServer) record(r Return) {
	s.mu.Lock()
	first := s.last.State == ReturnPending
	s.last = r
	s.mu.Unlock()

	if first {
		s.returns <- r
	}
}

func (s *CallbackServer) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Checkout callback request")
	}
}
