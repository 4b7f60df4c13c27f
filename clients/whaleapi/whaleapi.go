// Package whaleapi is the typed HTTP client for the whale-signal backend.
// It is a plain transport: it attaches auth headers, translates non-2xx
// responses into *APIError, and never retries. Retry policy (e.g. the
// refresh-then-retry flow on 401) belongs to callers.
package whaleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the current access token for outbound requests.
// It is read on every request rather than cached, so a concurrent logout
// or refresh is always observed by the next call.
type TokenSource interface {
	AccessToken() string
}

// Client talks to the whale-signal backend REST API.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
}

// NewClient creates a Client for the given base URL. tokens may be nil for
// unauthenticated use; requests then carry no Authorization header.
func NewClient(logger *zap.Logger, baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		limiter:    rate.NewLimiter(20, 10),
	}
}

// APIError is a non-2xx backend response with its HTTP status preserved so
// callers can branch on it (401 auth failure, 423 account locked, 404 absent).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status=%d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == status
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

// IsLocked reports whether err is a 423 account-locked response. The message
// carried by the error is the server's own wording and is shown verbatim.
func IsLocked(err error) bool { return IsStatus(err, http.StatusLocked) }

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

// ---- Auth endpoints ----

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair. 401 means invalid
// credentials; 423 means the account is locked.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, loginRequest{Email: email, Password: password}, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout tells the backend to invalidate the session. Callers treat errors
// as best-effort; local state is cleared regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, refreshRequest{RefreshToken: refreshToken}, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Me fetches the currently authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ---- Signal endpoints ----

// SignalQuery narrows the signals list server-side. Zero values are omitted
// from the request.
type SignalQuery struct {
	Sport      string
	BetType    string
	DateFilter string
	Hours      int
}

// Signals fetches the raw signal list.
func (c *Client) Signals(ctx context.Context, query SignalQuery) ([]RawSignal, error) {
	q := url.Values{}
	if query.Sport != "" {
		q.Set("sport", query.Sport)
	}
	if query.BetType != "" {
		q.Set("bet_type", query.BetType)
	}
	if query.DateFilter != "" {
		q.Set("date_filter", query.DateFilter)
	}
	if query.Hours > 0 {
		q.Set("hours", strconv.Itoa(query.Hours))
	}

	var resp SignalsResponse
	if err := c.do(ctx, http.MethodGet, "/api/signals", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("get signals: %w", err)
	}
	return resp.Signals, nil
}

// TriggerRefresh asks the backend to rebuild its signal cache.
func (c *Client) TriggerRefresh(ctx context.Context, sport string, topN int) (*RefreshResult, error) {
	q := url.Values{}
	if sport != "" {
		q.Set("sport", sport)
	}
	if topN > 0 {
		q.Set("top_n", strconv.Itoa(topN))
	}

	var result RefreshResult
	if err := c.do(ctx, http.MethodPost, "/api/signals/refresh", q, nil, &result); err != nil {
		return nil, fmt.Errorf("trigger refresh: %w", err)
	}
	return &result, nil
}

// SignalPositions fetches the whale positions backing one signal.
func (c *Client) SignalPositions(ctx context.Context, signalID int) (*PositionsResponse, error) {
	var resp PositionsResponse
	path := fmt.Sprintf("/api/signals/%d/positions", signalID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get signal positions: %w", err)
	}
	return &resp, nil
}

// Meta fetches backend refresh status.
func (c *Client) Meta(ctx context.Context) (*Meta, error) {
	var meta Meta
	if err := c.do(ctx, http.MethodGet, "/api/meta", nil, nil, &meta); err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	return &meta, nil
}

// ---- Journal endpoints ----

// Journal fetches the user's journal entry for a signal. Absence is a 404
// from the backend; callers translate that to "no entry yet" via IsNotFound.
func (c *Client) Journal(ctx context.Context, signalID int) (*JournalEntry, error) {
	var entry JournalEntry
	path := fmt.Sprintf("/api/signals/%d/journal", signalID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

type journalCreateRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// CreateJournal records a new journal entry for a signal. notes may be nil.
func (c *Client) CreateJournal(ctx context.Context, signalID int, notes *string) (*JournalEntry, error) {
	var entry JournalEntry
	path := fmt.Sprintf("/api/signals/%d/journal", signalID)
	if err := c.do(ctx, http.MethodPost, path, nil, journalCreateRequest{Notes: notes}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

type journalUpdateRequest struct {
	Notes string `json:"notes"`
}

// UpdateJournal replaces the thesis text on an existing entry.
func (c *Client) UpdateJournal(ctx context.Context, signalID int, notes string) (*JournalEntry, error) {
	var entry JournalEntry
	path := fmt.Sprintf("/api/signals/%d/journal", signalID)
	if err := c.do(ctx, http.MethodPatch, path, nil, journalUpdateRequest{Notes: notes}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RefreshJournal asks the backend to recompute the entry from the user's
// live on-chain position.
func (c *Client) RefreshJournal(ctx context.Context, signalID int) (*JournalEntry, error) {
	var entry JournalEntry
	path := fmt.Sprintf("/api/signals/%d/journal/refresh", signalID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ---- Whale play endpoints ----

// WhalePlays fetches one page of the flat whale-plays feed. params is the
// canonical query produced by the filter controller.
func (c *Client) WhalePlays(ctx context.Context, params url.Values) (*WhalePlaysPage, error) {
	var page WhalePlaysPage
	if err := c.do(ctx, http.MethodGet, "/api/whale-plays", params, nil, &page); err != nil {
		return nil, fmt.Errorf("get whale plays: %w", err)
	}
	return &page, nil
}

// GroupedWhaleBets fetches direction-grouped whale bets. params is the
// canonical query produced by the filter controller.
func (c *Client) GroupedWhaleBets(ctx context.Context, params url.Values) (*GroupedResponse, error) {
	var resp GroupedResponse
	if err := c.do(ctx, http.MethodGet, "/api/whale-bets/grouped", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("get grouped whale bets: %w", err)
	}
	return &resp, nil
}

// ---- Transport ----

// errorBody covers the message field variants the backend uses.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do performs one request against the backend. Every request re-reads the
// access token from the TokenSource and attaches it when present.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(respBody, resp.Status),
		}
	}

	if dest == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

// extractErrorMessage pulls a human-readable message out of an error
// response body, falling back to the transport status text.
func extractErrorMessage(body []byte, statusText string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		for _, msg := range []string{eb.Detail, eb.Message, eb.Error} {
			if strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return statusText
}
