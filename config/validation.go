package config

import (
	"net/url"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateAPI(&c.API)...)
	errors = append(errors, validateSession(&c.Session)...)
	errors = append(errors, validateSignals(&c.Signals)...)
	errors = append(errors, validateWhalePlays(&c.WhalePlays)...)
	errors = append(errors, validateRender(&c.Render)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateAPI(a *APIConfig) []ValidationError {
	var errors []ValidationError

	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Message: "must be an absolute http(s) URL",
		})
	}

	if a.Timeout < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "api.timeout",
			Message: "must be at least 1 second",
		})
	}

	return errors
}

func validateSession(s *SessionConfig) []ValidationError {
	var errors []ValidationError

	if s.RefreshInterval < 1*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "session.refresh_interval",
			Message: "must be at least 1 minute",
		})
	}

	if s.TokenStorePath == "" {
		errors = append(errors, ValidationError{
			Field:   "session.token_store_path",
			Message: "must not be empty",
		})
	}

	return errors
}

func validateSignals(s *SignalsConfig) []ValidationError {
	var errors []ValidationError

	if s.PollInterval < 5*time.Second {
		errors = append(errors, ValidationError{
			Field:   "signals.poll_interval",
			Message: "must be at least 5 seconds",
		})
	}

	if s.Hours < 0 {
		errors = append(errors, ValidationError{
			Field:   "signals.hours",
			Message: "must be non-negative",
		})
	}

	return errors
}

func validateWhalePlays(w *WhalePlaysConfig) []ValidationError {
	var errors []ValidationError

	if w.PageSize < 1 || w.PageSize > 100 {
		errors = append(errors, ValidationError{
			Field:   "whale_plays.page_size",
			Message: "must be between 1 and 100",
		})
	}

	return errors
}

func validateRender(r *RenderConfig) []ValidationError {
	var errors []ValidationError

	if r.MaxRows < 1 {
		errors = append(errors, ValidationError{
			Field:   "render.max_rows",
			Message: "must be at least 1",
		})
	}

	return errors
}
