package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Format = "xml" },
			wantErr: "format must be",
		},
		{
			name: "no outputs",
			mutate: func(c *Config) {
				c.Output = OutputConfig{}
			},
			wantErr: "at least one output",
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Level = "loud" },
			wantErr: "invalid level",
		},
		{
			name: "negative caller skip",
			mutate: func(c *Config) {
				c.Caller = CallerConfig{Enabled: true, Skip: -1}
			},
			wantErr: "caller skip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, err := NewLogger(&Config{Format: "xml", Output: OutputConfig{Stderr: true}})
	require.Error(t, err)
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))

	ctx = WithProject(ctx, "demo")
	ctx = WithAgent(ctx, "A-02")

	fields := ContextFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "demo", ProjectFromContext(ctx))
	assert.Equal(t, "A-02", AgentFromContext(ctx))
}

func TestFromContext_Default(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	// Nop logger must be safe to use.
	logger.Info(context.Background(), "noop")
}

func TestTestLogger_Observes(t *testing.T) {
	tl := NewTestLogger()
	tl.Warn(context.Background(), "something odd happened")
	tl.AssertLogged(t, zapcore.WarnLevel, "something odd")
	assert.Equal(t, 1, tl.FilterMessage("something odd happened").Len())
}
