package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"backend-fieldtrack/internal/visit"
)

// RegistryClient polls the active-visit registry over REST.
type RegistryClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewRegistryClient(baseURL, token string) *RegistryClient {
	return &RegistryClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *RegistryClient) ActiveVisits(ctx context.Context) ([]visit.ActiveVisit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/visits/active", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry fetch returned %d", resp.StatusCode)
	}

	var visits []visit.ActiveVisit
	if err := json.NewDecoder(resp.Body).Decode(&visits); err != nil {
		return nil, err
	}
	return visits, nil
}
