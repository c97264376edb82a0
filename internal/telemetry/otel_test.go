package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled skips checks", Config{SamplerRatio: 7}, false},
		{"missing endpoint", Config{Enabled: true, SamplerRatio: 1}, true},
		{"ratio out of range", Config{Enabled: true, Endpoint: "localhost:4317", SamplerRatio: 1.5}, true},
		{"ok", Config{Enabled: true, Endpoint: "localhost:4317", SamplerRatio: 0.25}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitTracer_InvalidConfig(t *testing.T) {
	_, err := InitTracer(context.Background(), Config{Enabled: true}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
