package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yusufekamaulana/rsua-akreditasi/config"
)

// Remote calls an external prediction service over HTTP.
type Remote struct {
	baseURL string
	client  *http.Client
}

func NewRemote(cfg *config.ClassifierConfig) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.EffectiveTimeout()},
	}
}

type remoteRequest struct {
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (r *Remote) Classify(ctx context.Context, narrative string, fields map[string]string) (Prediction, error) {
	body, err := json.Marshal(remoteRequest{Text: narrative, Fields: fields})
	if err != nil {
		return Prediction{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	var p Prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Prediction{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if p.Category == "" {
		return Prediction{}, fmt.Errorf("classifier returned no category")
	}
	return p, nil
}
