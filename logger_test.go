package main

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	tests := []struct {
		level     string
		expectErr bool
	}{
		{"debug", false},
		{"warn", false},
		{"loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := initLogger(tt.level)
			if tt.expectErr {
				if err == nil {
					t.Errorf("initLogger(%q) expected error", tt.level)
				}
				return
			}
			if err != nil {
				t.Fatalf("initLogger(%q) error = %v", tt.level, err)
			}
			want, _ := zapcore.ParseLevel(tt.level)
			if !logger.Core().Enabled(want) || zap.L() != logger {
				t.Errorf("initLogger(%q) did not install an enabled global logger", tt.level)
			}
		})
	}
}
