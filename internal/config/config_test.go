package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCap(t *testing.T) {
	got, err := Cap("")
	if err != nil || !got.IsZero() {
		t.Errorf("empty cap: got %s, %v; want zero, nil", got, err)
	}

	got, err = Cap("25.50")
	if err != nil {
		t.Fatalf("Cap(25.50): %v", err)
	}
	if !got.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("Cap(25.50): got %s", got)
	}

	if _, err := Cap("not-a-number"); err == nil {
		t.Error("expected an error for a malformed cap")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port == "" {
		t.Error("PORT default missing")
	}
	if cfg.CoolingOff <= 0 {
		t.Error("COOLING_OFF_DURATION default missing")
	}
}
