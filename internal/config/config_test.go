package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8090 {
		t.Errorf("Port = %d, want 8090", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.DevMode {
		t.Error("DevMode should default to false")
	}
	if cfg.RiskFreeRate != 0.02 {
		t.Errorf("RiskFreeRate = %v, want 0.02", cfg.RiskFreeRate)
	}
	if cfg.PeriodsPerYear != 252 {
		t.Errorf("PeriodsPerYear = %v, want 252", cfg.PeriodsPerYear)
	}
	if cfg.FrontierPoints != 100 {
		t.Errorf("FrontierPoints = %d, want 100", cfg.FrontierPoints)
	}
	if cfg.FrontierWorkers != 0 {
		t.Errorf("FrontierWorkers = %d, want 0", cfg.FrontierWorkers)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FRONTIER_PORT", "9100")
	t.Setenv("FRONTIER_LOG_LEVEL", "debug")
	t.Setenv("FRONTIER_DEV_MODE", "true")
	t.Setenv("FRONTIER_RISK_FREE_RATE", "0.035")
	t.Setenv("FRONTIER_PERIODS_PER_YEAR", "12")
	t.Setenv("FRONTIER_FRONTIER_POINTS", "50")
	t.Setenv("FRONTIER_FRONTIER_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.DevMode {
		t.Error("DevMode should be true")
	}
	if cfg.RiskFreeRate != 0.035 {
		t.Errorf("RiskFreeRate = %v, want 0.035", cfg.RiskFreeRate)
	}
	if cfg.PeriodsPerYear != 12 {
		t.Errorf("PeriodsPerYear = %v, want 12", cfg.PeriodsPerYear)
	}
	if cfg.FrontierPoints != 50 {
		t.Errorf("FrontierPoints = %d, want 50", cfg.FrontierPoints)
	}
	if cfg.FrontierWorkers != 4 {
		t.Errorf("FrontierWorkers = %d, want 4", cfg.FrontierWorkers)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "FRONTIER_PORT", "70000"},
		{"negative periods per year", "FRONTIER_PERIODS_PER_YEAR", "-1"},
		{"zero frontier points", "FRONTIER_FRONTIER_POINTS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("FRONTIER_PORT", "not-a-number")
	t.Setenv("FRONTIER_RISK_FREE_RATE", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8090 {
		t.Errorf("Port = %d, want default 8090", cfg.Port)
	}
	if cfg.RiskFreeRate != 0.02 {
		t.Errorf("RiskFreeRate = %v, want default 0.02", cfg.RiskFreeRate)
	}
}
