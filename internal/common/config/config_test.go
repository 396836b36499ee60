package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithPath("/nonexistent/path/for/test")
	if err != nil {
		t.Fatalf("LoadWithPath returned error: %v", err)
	}
	if cfg.System.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.System.Port)
	}
	if cfg.System.KeepAliveInterval != 10 {
		t.Errorf("expected default keep_alive_interval 10, got %d", cfg.System.KeepAliveInterval)
	}
	if cfg.System.KeepAliveThreshold != 30 {
		t.Errorf("expected default keep_alive_threshold 30, got %d", cfg.System.KeepAliveThreshold)
	}
	if len(cfg.System.SupportedMediaTypes) == 0 {
		t.Error("expected non-empty default supported media types")
	}
}

func TestKeepAliveDurationHelpers(t *testing.T) {
	cfg := SystemConfig{KeepAliveInterval: 5, KeepAliveThreshold: 15}
	if cfg.KeepAliveIntervalDuration().Seconds() != 5 {
		t.Errorf("unexpected interval duration: %v", cfg.KeepAliveIntervalDuration())
	}
	if cfg.KeepAliveThresholdDuration().Seconds() != 15 {
		t.Errorf("unexpected threshold duration: %v", cfg.KeepAliveThresholdDuration())
	}
}
