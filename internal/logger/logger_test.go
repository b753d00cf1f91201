package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/relevex/internal/version"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		wantErr bool
		enabled zapcore.Level
	}{
		{env: "local", enabled: zapcore.DebugLevel},
		{env: "prod", enabled: zapcore.InfoLevel},
		{env: "prod", level: "warn", enabled: zapcore.WarnLevel},
		{env: "staging", wantErr: true},
		{env: "local", level: "loud", wantErr: true},
	}
	for _, tc := range tests {
		l, err := NewLogger(tc.env, tc.level)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s/%s: expected error", tc.env, tc.level)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.env, tc.level, err)
		}
		if !l.Core().Enabled(tc.enabled) {
			t.Errorf("%s/%s: level %s should be enabled", tc.env, tc.level, tc.enabled)
		}
		if tc.enabled > zapcore.DebugLevel && l.Core().Enabled(tc.enabled-1) {
			t.Errorf("%s/%s: level %s should be disabled", tc.env, tc.level, tc.enabled-1)
		}
	}
}

func TestNewConfig_ServiceFields(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		cfg, err := newConfig(env, "")
		if err != nil {
			t.Fatalf("%s: %v", env, err)
		}
		if cfg.InitialFields["service"] != "relevex" {
			t.Errorf("%s: service = %v", env, cfg.InitialFields["service"])
		}
		if cfg.InitialFields["version"] != version.Version {
			t.Errorf("%s: version = %v", env, cfg.InitialFields["version"])
		}
	}

	prod, _ := newConfig("prod", "")
	if prod.Sampling != nil {
		t.Error("prod logs should not be sampled")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected nop logger")
	}

	l := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("expected stored logger")
	}
}

func TestFromContextOr(t *testing.T) {
	fallback := zap.NewExample()
	if FromContextOr(context.Background(), fallback) != fallback {
		t.Error("expected fallback without request logger")
	}

	req := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), req)
	if FromContextOr(ctx, fallback) != req {
		t.Error("expected request logger")
	}

	if FromContextOr(context.Background(), nil) == nil {
		t.Error("expected nop logger for nil fallback")
	}
}
