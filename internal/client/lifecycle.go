package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"backend-fieldtrack/internal/visit"
)

// ErrConflict mirrors the server's one-open-visit-per-subject rule.
var ErrConflict = errors.New("a visit is already open for this employee")

// ErrAuth is returned for rejected credentials. Never retried.
var ErrAuth = errors.New("credential rejected")

const lifecycleRetries = 3

// Lifecycle issues the start and end visit calls. Transport failures
// are retried a fixed number of times; conflict and auth responses are
// surfaced immediately.
type Lifecycle struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewLifecycle(baseURL, token string) *Lifecycle {
	return &Lifecycle{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// StartVisit opens a visit for the authenticated employee. Only after
// it succeeds may the sampler begin emitting for the returned visit id.
func (l *Lifecycle) StartVisit(ctx context.Context, siteLabel string) (visit.Visit, error) {
	body, _ := json.Marshal(map[string]string{"site_label": siteLabel})

	var v visit.Visit
	err := l.do(ctx, http.MethodPost, "/visits", body, http.StatusCreated, &v)
	return v, err
}

// EndVisit closes a visit. The server treats ending an already-closed
// visit as success, so callers may retry freely.
func (l *Lifecycle) EndVisit(ctx context.Context, visitID string) error {
	return l.do(ctx, http.MethodPost, "/visits/"+visitID+"/end", nil, http.StatusOK, nil)
}

func (l *Lifecycle) do(ctx context.Context, method, path string, body []byte, wantStatus int, out any) error {
	var lastErr error
	for attempt := 0; attempt < lifecycleRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+l.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := l.http.Do(req)
		if err != nil {
			// transport failure, the only retryable case
			lastErr = err
			continue
		}

		switch resp.StatusCode {
		case wantStatus:
			if out != nil {
				err = json.NewDecoder(resp.Body).Decode(out)
			}
			resp.Body.Close()
			return err
		case http.StatusConflict:
			resp.Body.Close()
			return ErrConflict
		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrAuth
		default:
			resp.Body.Close()
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
		}
	}
	return fmt.Errorf("request failed after %d attempts: %w", lifecycleRetries, lastErr)
}
