package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandrev/internal/domain"
)

func TestLoadFeatureNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_features.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`["bb_percent", "rsi", "break_type", "profit_potential"]`), 0o600))

	names, err := LoadFeatureNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bb_percent", "rsi", "break_type", "profit_potential"}, names)
}

func TestLoadFeatureNamesFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFeatureNames(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o600))
	_, err = LoadFeatureNames(empty)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	malformed := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"features": 1}`), 0o600))
	_, err = LoadFeatureNames(malformed)
	assert.Error(t, err)
}

func TestNewModelClientRequiresEndpoint(t *testing.T) {
	_, err := NewModelClient("")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestModelClientPredict(t *testing.T) {
	vector := domain.FeatureVector{
		Names:  []string{"bb_percent", "rsi"},
		Values: []float64{1.04, 78.2},
	}

	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"label": 1}`))
	}))
	defer srv.Close()

	client, err := NewModelClient(srv.URL)
	require.NoError(t, err)

	label, err := client.Predict(context.Background(), vector)
	require.NoError(t, err)
	assert.Equal(t, 1, label)
	assert.Equal(t, vector.Names, got.Features)
	assert.Equal(t, vector.Values, got.Values)
}

func TestModelClientPredictFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"service error", http.StatusInternalServerError, `model not loaded`},
		{"label out of range", http.StatusOK, `{"label": 3}`},
		{"malformed body", http.StatusOK, `label=1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			client, err := NewModelClient(srv.URL)
			require.NoError(t, err)

			_, err = client.Predict(context.Background(), domain.FeatureVector{})
			assert.Error(t, err)
		})
	}
}

func TestGranularityToInterval(t *testing.T) {
	interval, ok := granularityToInterval["M15"]
	require.True(t, ok)
	assert.Equal(t, "15m", interval)

	_, ok = granularityToInterval["S5"]
	assert.False(t, ok)
}
