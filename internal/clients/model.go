package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"bandrev/internal/domain"
)

const modelTimeout = 15 * time.Second

// LoadFeatureNames reads the ordered feature list the model was trained with.
// The file is the sidecar artifact produced at training time; the order is
// binding for every inference call.
func LoadFeatureNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read feature list %s", path)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, errors.Wrapf(err, "failed to parse feature list %s", path)
	}
	if len(names) == 0 {
		return nil, errors.Wrapf(domain.ErrInvalidConfiguration, "feature list %s is empty", path)
	}
	return names, nil
}

// ModelClient calls the inference service that hosts the pretrained
// classifier. The service receives the ordered feature row and answers with a
// 0/1 label.
type ModelClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewModelClient creates a client for the inference endpoint.
func NewModelClient(endpoint string) (*ModelClient, error) {
	if endpoint == "" {
		return nil, errors.Wrap(domain.ErrInvalidConfiguration, "model endpoint is required")
	}
	return &ModelClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: modelTimeout,
		},
	}, nil
}

type predictRequest struct {
	Features []string  `json:"features"`
	Values   []float64 `json:"values"`
}

type predictResponse struct {
	Label int `json:"label"`
}

// Predict sends one feature vector and returns the predicted label.
func (c *ModelClient) Predict(ctx context.Context, vector domain.FeatureVector) (int, error) {
	payload, err := json.Marshal(predictRequest{
		Features: vector.Names,
		Values:   vector.Values,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal feature vector")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, errors.Wrap(err, "failed to create prediction request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "prediction request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read prediction response")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("inference service returned status %d: %s", resp.StatusCode, string(data))
	}

	var out predictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, errors.Wrap(err, "failed to decode prediction response")
	}
	if out.Label != 0 && out.Label != 1 {
		return 0, errors.Errorf("inference service returned unexpected label %d", out.Label)
	}
	return out.Label, nil
}
