package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bankim/loan-engine/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCalculatorCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "payment",
			args:     []string{"payment", "--total", "1000000", "--down", "200000", "-y", "10", "--rate", "5"},
			expected: "monthly payment: ₪8,485\n",
		},
		{
			name:     "payment without a price",
			args:     []string{"payment", "--down", "200000", "-y", "10", "--rate", "5"},
			expected: "monthly payment: not_yet_computable\n",
		},
		{
			name:     "impossible term",
			args:     []string{"term", "--total", "500000", "--down", "0", "-m", "1000", "--rate", "5"},
			expected: "term: impossible\n",
		},
		{
			name:     "remaining",
			args:     []string{"remaining", "--balance", "500000", "-y", "10", "--rate", "5"},
			expected: "remaining amount: ₪750,000\n",
		},
		{
			name:     "annuity as JSON",
			args:     []string{"annuity", "-p", "100000", "-y", "5", "--rate", "8.5", "--json"},
			expected: `{"monthly payment":{"value":2052,"outcome":"computable"}}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("output = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRateFromConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "rates:\n  mortgage: 5\n  mortgageRefinance: 5\n  credit: 8.5\n  creditRefinance: 6\n"
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	got, err := execute(t, "annuity", "--config", path, "-p", "100000", "-y", "5")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if got != "monthly payment: ₪2,052\n" {
		t.Errorf("output = %q", got)
	}

	if _, err := execute(t, "annuity", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "-p", "100000", "-y", "5"); err == nil {
		t.Error("expected error without --rate or configuration")
	}
}

func TestScheduleCommand(t *testing.T) {
	got, err := execute(t, "schedule", "--start", "2025-01", "-p", "175000", "-y", "30", "--rate", "4.5",
		"--extra", "2025-06=50000", "-o", "csv")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if lines[0] != "month,date,payment,principal,interest,extra principal,remaining principal" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines)-1 >= 360 {
		t.Errorf("early repayment should shorten the schedule, got %d rows", len(lines)-1)
	}

	if _, err := execute(t, "schedule", "--start", "2025-01", "-p", "1000", "-y", "1", "--rate", "4", "-o", "xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
	if _, err := execute(t, "schedule", "--start", "2025-01", "-p", "1000", "-y", "1", "--rate", "4", "--extra", "2025-02=lots"); err == nil {
		t.Error("expected error for a non-numeric early repayment")
	}
}

func TestVersionCommand(t *testing.T) {
	got, err := execute(t, "version")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if strings.TrimSpace(got) != version {
		t.Errorf("version output = %q", got)
	}
}

func TestInitializeLogger(t *testing.T) {
	if _, err := initializeLogger(config.LoggingConfig{Level: "verbose"}, ""); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := initializeLogger(config.LoggingConfig{Format: "xml"}, ""); err == nil {
		t.Error("expected error for invalid format")
	}

	logFile := filepath.Join(t.TempDir(), "logs", "engine.log")
	logger, err := initializeLogger(config.LoggingConfig{Level: "error", OutputFile: logFile}, "debug")
	if err != nil {
		t.Fatalf("initializeLogger() error = %v", err)
	}
	logger.Debug("written at debug level")
	_ = logger.Sync()
	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}

func TestReapInterval(t *testing.T) {
	if got := reapInterval(0); got != 0 {
		t.Errorf("reapInterval(0) = %v", got)
	}
	if got := reapInterval(2 * time.Minute); got != time.Minute {
		t.Errorf("reapInterval(2m) = %v", got)
	}
	if got := reapInterval(time.Hour); got != 15*time.Minute {
		t.Errorf("reapInterval(1h) = %v", got)
	}
}
