package config

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/devmarket/escrow/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}

	if cfg.CommissionHardCap != "0.35" {
		t.Errorf("expected default hard cap 0.35, got %s", cfg.CommissionHardCap)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("COMMISSION_RATE_STANDARD", "0.20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.HTTPPort)
	}

	if cfg.CommissionRateStandard != "0.20" {
		t.Errorf("expected standard rate 0.20, got %s", cfg.CommissionRateStandard)
	}
}

func TestCommissionPolicy(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	policy, err := cfg.CommissionPolicy()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !policy.DirectRate(domain.TierGold).Equal(decimal.RequireFromString("0.30")) {
		t.Errorf("expected gold rate 0.30, got %s", policy.DirectRate(domain.TierGold))
	}

	if !policy.HardCap.Equal(decimal.RequireFromString("0.35")) {
		t.Errorf("expected hard cap 0.35, got %s", policy.HardCap)
	}
}

func TestCommissionPolicy_InvalidRate(t *testing.T) {
	t.Setenv("COMMISSION_RATE_OVERRIDE", "1.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := cfg.CommissionPolicy(); err == nil {
		t.Fatal("expected error for out-of-range rate")
	}
}
