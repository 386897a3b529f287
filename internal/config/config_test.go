package config

import (
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":   "postgres://localhost/sewa",
		"REDIS_URL":      "redis://localhost:6379",
		"JWT_SECRET":     "secret",
		"ORDER_CODE_KEY": "123456789",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTPAddr())
	}
	if cfg.CartTTL != 168*time.Hour {
		t.Fatalf("cart ttl = %v", cfg.CartTTL)
	}
	if cfg.JWTIssuer != "sewa" || cfg.JWTAudience != "sewa-api" {
		t.Fatalf("jwt defaults = %q %q", cfg.JWTIssuer, cfg.JWTAudience)
	}
	if cfg.OrderCodeKey != 123456789 {
		t.Fatalf("order code key = %d", cfg.OrderCodeKey)
	}
}

func TestLoadRequiresOrderCodeKey(t *testing.T) {
	env := baseEnv()
	env["ORDER_CODE_KEY"] = ""
	if _, err := LoadForTests(env); err == nil {
		t.Fatal("expected error for missing ORDER_CODE_KEY")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	env := baseEnv()
	env["LATE_PENALTY_PER_DAY"] = "50000"
	env["ACTIVATION_INTERVAL"] = "2m"
	env["EMAIL_ENABLED"] = "true"
	cfg, err := LoadForTests(env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LatePenaltyPerDay != 50000 {
		t.Fatalf("penalty = %d", cfg.LatePenaltyPerDay)
	}
	if cfg.ActivationInterval != 2*time.Minute {
		t.Fatalf("interval = %v", cfg.ActivationInterval)
	}
	if !cfg.EmailEnabled {
		t.Fatal("email should be enabled")
	}
}
