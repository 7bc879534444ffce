package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("TRANSCRIPT_MAX_CHARS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %s", cfg.OpenAIModel)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("expected default redis addr, got %s", cfg.RedisAddr)
	}
	if cfg.TranscriptMaxChars != 0 {
		t.Fatalf("expected unbounded transcript by default, got %d", cfg.TranscriptMaxChars)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("TRANSCRIPT_MAX_CHARS", "4000")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.LineChannelSecret != "secret" || cfg.LineChannelAccessToken != "token" {
		t.Fatalf("expected line credentials override")
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("expected model override, got %s", cfg.OpenAIModel)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("expected redis db override, got %d", cfg.RedisDB)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.TranscriptMaxChars != 4000 {
		t.Fatalf("expected transcript cap override, got %d", cfg.TranscriptMaxChars)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"complete", func(c *Config) {}, false},
		{"missing channel secret", func(c *Config) { c.LineChannelSecret = "" }, true},
		{"missing access token", func(c *Config) { c.LineChannelAccessToken = "" }, true},
		{"missing openai key", func(c *Config) { c.OpenAIAPIKey = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LineChannelSecret:      "secret",
				LineChannelAccessToken: "token",
				OpenAIAPIKey:           "sk-test",
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
