package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whaledeck/clients/tokenstore"
	"whaledeck/clients/whaleapi"
)

// ErrLoginInProgress is returned when a login is attempted while another is
// still running.
var ErrLoginInProgress = errors.New("login already in progress")

// SessionState is a point-in-time snapshot of the auth session.
type SessionState struct {
	Authenticated bool
	Loading       bool
	User          *whaleapi.User
}

// Session is the single source of truth for "is there a logged-in user".
// It owns the token pair, the current-user fetch, and the silent background
// refresh timer. It implements whaleapi.TokenSource, so every outbound
// request reads the live token under the lock rather than a cached copy.
type Session struct {
	logger          *zap.Logger
	store           tokenstore.Store
	refreshInterval time.Duration

	mu            sync.Mutex
	api           *whaleapi.Client
	accessToken   string
	refreshToken  string
	user          *whaleapi.User
	authenticated bool
	loading       bool
	generation    string // changes on every successful auth; guards stale refresh failures

	refreshStop chan struct{}
}

// Ensure Session implements the token source the gateway reads from.
var _ whaleapi.TokenSource = (*Session)(nil)

// NewSession creates a session backed by the given token store. AttachAPI
// must be called before any operation that talks to the backend.
func NewSession(logger *zap.Logger, store tokenstore.Store, refreshInterval time.Duration) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if refreshInterval <= 0 {
		refreshInterval = 10 * time.Minute
	}
	return &Session{
		logger:          logger,
		store:           store,
		refreshInterval: refreshInterval,
	}
}

// AttachAPI wires the gateway client. Done post-construction because the
// client itself reads tokens from this session.
func (s *Session) AttachAPI(api *whaleapi.Client) {
	s.mu.Lock()
	s.api = api
	s.mu.Unlock()
}

// AccessToken implements whaleapi.TokenSource.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Authenticated: s.authenticated,
		Loading:       s.loading,
		User:          s.user,
	}
}

// Initialize restores the session on startup. With no stored token it marks
// the session unauthenticated and stops. With a token it fetches the current
// user; a 401 gets one silent refresh and one retry before tokens are
// cleared. Any other failure keeps the tokens so a transient network error
// can resolve on the next load.
func (s *Session) Initialize(ctx context.Context) error {
	access, refresh, err := s.store.Load()
	if err != nil {
		return err
	}
	if access == "" {
		s.logger.Info("no stored token, starting unauthenticated")
		return nil
	}

	s.mu.Lock()
	s.accessToken = access
	s.refreshToken = refresh
	api := s.api
	s.mu.Unlock()

	user, err := api.Me(ctx)
	if err != nil && whaleapi.IsUnauthorized(err) {
		if refreshErr := s.refreshTokens(ctx); refreshErr != nil {
			s.logger.Info("stored token rejected and refresh failed, clearing tokens",
				zap.Error(refreshErr),
			)
			s.clearSession()
			return nil
		}
		user, err = api.Me(ctx)
		if err != nil && whaleapi.IsUnauthorized(err) {
			s.logger.Info("user fetch still unauthorized after refresh, clearing tokens")
			s.clearSession()
			return nil
		}
	}
	if err != nil {
		// Transient failure: stay unauthenticated but keep tokens for the
		// next load.
		s.logger.Warn("user fetch failed on startup", zap.Error(err))
		return nil
	}

	s.setAuthenticated(user)
	s.logger.Info("session restored",
		zap.String("email", user.Email),
		zap.String("tier", user.SubscriptionTier),
	)
	return nil
}

// Login exchanges credentials for a session. Errors are the gateway's typed
// *APIError values (401 invalid credentials, 423 locked with the server's
// message); nothing is stored on failure.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrLoginInProgress
	}
	s.loading = true
	api := s.api
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	pair, err := api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.mu.Unlock()

	user, err := api.Me(ctx)
	if err != nil {
		// No partial state: the login only counts once the user is known.
		s.clearSession()
		return err
	}

	if err := s.store.Save(pair.AccessToken, pair.RefreshToken); err != nil {
		s.logger.Warn("failed to persist tokens", zap.Error(err))
	}

	s.setAuthenticated(user)
	s.logger.Info("logged in", zap.String("email", user.Email))
	return nil
}

// Logout always succeeds locally: the backend call is best-effort and its
// errors are ignored.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	api := s.api
	s.mu.Unlock()

	if err := api.Logout(ctx); err != nil {
		s.logger.Debug("logout request failed, clearing local session anyway", zap.Error(err))
	}

	s.clearSession()
	s.logger.Info("logged out")
}

// RefreshUser re-fetches the current user. Used for passive background
// refresh; errors are swallowed and never surfaced to the caller.
func (s *Session) RefreshUser(ctx context.Context) {
	s.mu.Lock()
	authenticated := s.authenticated
	api := s.api
	s.mu.Unlock()

	if !authenticated {
		return
	}

	user, err := api.Me(ctx)
	if err != nil {
		s.logger.Warn("background user refresh failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.authenticated {
		s.user = user
	}
	s.mu.Unlock()
}

// Close stops the background refresh timer. Stored tokens survive so the
// next start can restore the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRefreshLocked()
}

// setAuthenticated installs a user, stamps a new session generation, and
// makes sure the background refresh timer runs.
func (s *Session) setAuthenticated(user *whaleapi.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.authenticated = true
	s.generation = uuid.NewString()

	if s.refreshStop == nil {
		stop := make(chan struct{})
		s.refreshStop = stop
		go s.refreshLoop(stop)
	}
}

// clearSession wipes all session state, memory and store.
func (s *Session) clearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	s.authenticated = false
	s.generation = ""
	s.stopRefreshLocked()

	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear token store", zap.Error(err))
	}
}

func (s *Session) stopRefreshLocked() {
	if s.refreshStop != nil {
		close(s.refreshStop)
		s.refreshStop = nil
	}
}

// refreshLoop silently refreshes the token pair on a fixed cadence while the
// session is authenticated. A failed refresh forces re-login, but only if
// the session generation it started with is still current: a login that
// completed while the refresh was in flight must not be stomped by the stale
// failure.
func (s *Session) refreshLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			gen := s.generation
			authenticated := s.authenticated
			s.mu.Unlock()
			if !authenticated {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := s.refreshTokens(ctx)
			cancel()
			if err == nil {
				s.logger.Debug("silent token refresh succeeded")
				continue
			}

			s.mu.Lock()
			stale := s.generation != gen
			s.mu.Unlock()
			if stale {
				s.logger.Debug("ignoring stale background refresh failure")
				continue
			}

			s.logger.Warn("silent token refresh failed, forcing re-login", zap.Error(err))
			s.clearSession()
			return
		}
	}
}

// refreshTokens exchanges the current refresh token for a new pair and
// persists it.
func (s *Session) refreshTokens(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refreshToken
	api := s.api
	s.mu.Unlock()

	if refresh == "" {
		return errors.New("no refresh token")
	}

	pair, err := api.Refresh(ctx, refresh)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.mu.Unlock()

	if err := s.store.Save(pair.AccessToken, pair.RefreshToken); err != nil {
		s.logger.Warn("failed to persist refreshed tokens", zap.Error(err))
	}
	return nil
}
