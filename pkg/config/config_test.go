package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis must be disabled when no url or address is set")
	}
	if got := cfg.Checkout.ConfirmLatency; got != 1200*time.Millisecond {
		t.Fatalf("expected confirm latency 1200ms, got %v", got)
	}
	if !cfg.Checkout.RequireIdentifiedBuyer {
		t.Fatalf("expected identified buyer to be required by default")
	}
	if cfg.Session.CookieName != "mcn_cart" {
		t.Fatalf("unexpected cookie name %q", cfg.Session.CookieName)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected two default origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.JWT.TTL() != 12*time.Hour {
		t.Fatalf("expected 12h token ttl, got %v", cfg.JWT.TTL())
	}
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvCheckoutConfirmLatency, "0s")
	t.Setenv(EnvCheckoutRequireBuyer, "false")
	t.Setenv(EnvCORSAllowedOrigins, "https://mcn.example.fr")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Redis.Enabled() {
		t.Fatalf("expected redis enabled")
	}
	if cfg.Checkout.ConfirmLatency != 0 {
		t.Fatalf("expected zero latency, got %v", cfg.Checkout.ConfirmLatency)
	}
	if cfg.Checkout.RequireIdentifiedBuyer {
		t.Fatalf("expected identified buyer requirement disabled")
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://mcn.example.fr" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_InvalidCheckoutTimeout(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCheckoutConfirmTimeout, "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-positive timeout to be rejected")
	}
}

func TestCheckoutConfigValidate(t *testing.T) {
	if err := (CheckoutConfig{ConfirmLatency: -time.Second, ConfirmTimeout: time.Second}).validate(); err == nil {
		t.Fatal("expected negative latency to be rejected")
	}
	if err := (CheckoutConfig{ConfirmTimeout: time.Second}).validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvJWTSecret, "secret")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
