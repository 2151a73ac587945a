package run

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/gonka-mask-go/internal/config"
	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
)

func healthy(t *testing.T, path string) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func deadURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestResolveDetector(t *testing.T) {
	ctx := context.Background()
	rules := sanitize.DefaultRules()

	tests := []struct {
		name      string
		cfg       config.Cfg
		available bool
	}{
		{"off", config.Cfg{Semantic: config.SemanticOff}, false},
		{"ner ready", config.Cfg{Semantic: config.SemanticNER, NERURL: healthy(t, "/health")}, true},
		{"ner down", config.Cfg{Semantic: config.SemanticNER, NERURL: deadURL()}, false},
		{"ner unhealthy", config.Cfg{Semantic: config.SemanticNER, NERURL: healthy(t, "/other")}, false},
		{"llm ready", config.Cfg{Semantic: config.SemanticLLM, LLMURL: healthy(t, "/v1/models"), LLMModel: "m"}, true},
		{"llm down", config.Cfg{Semantic: config.SemanticLLM, LLMURL: deadURL(), LLMModel: "m"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ProbeTimeout = 2 * time.Second
			d := ResolveDetector(ctx, &tt.cfg, rules)
			require.NotNil(t, d)
			assert.Equal(t, tt.available, d.Available())
			if tt.available {
				assert.NoError(t, sanitize.UnavailableReason(d))
				return
			}
			assert.ErrorIs(t, sanitize.UnavailableReason(d), sanitize.ErrCapabilityUnavailable)
		})
	}
}

func TestResolveDetector_ProbeTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	cfg := &config.Cfg{Semantic: config.SemanticNER, NERURL: srv.URL, ProbeTimeout: 50 * time.Millisecond}
	start := time.Now()
	d := ResolveDetector(context.Background(), cfg, sanitize.DefaultRules())
	assert.False(t, d.Available())
	assert.Less(t, time.Since(start), 5*time.Second)
}
