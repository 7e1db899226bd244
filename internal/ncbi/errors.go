package ncbi

import (
	"errors"
	"fmt"
	"net/url"
)

// TransportError reports a request that could not be completed: a network
// failure, a non-2xx status, an oversized body, or a body that could not be
// decoded. It is the only error class a search surfaces to its caller.
type TransportError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	target := redactURL(e.URL)
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, target)
	}
	return fmt.Sprintf("request to %s failed: %v", target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Malformed wraps a decode failure of an otherwise successful response.
func Malformed(rawURL string, err error) error {
	return &TransportError{URL: rawURL, Err: fmt.Errorf("malformed body: %w", err)}
}

// redactURL drops the query string's credentials from error messages.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, k := range []string{"api_key", "email"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
