package config

import (
	"strings"
	"testing"
	"time"
)

// env returns a lookup over vars.
func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "0.0.0.0:8080")
	}
	if cfg.RuleSets.Store != StoreMemory {
		t.Errorf("RuleSets.Store = %q, want %q", cfg.RuleSets.Store, StoreMemory)
	}
	if cfg.RuleSets.CacheTTL != 5*time.Minute {
		t.Errorf("RuleSets.CacheTTL = %v, want 5m", cfg.RuleSets.CacheTTL)
	}
	if cfg.Dataset.MaxFileSize != 20<<20 {
		t.Errorf("Dataset.MaxFileSize = %d, want %d", cfg.Dataset.MaxFileSize, 20<<20)
	}
	if !cfg.Dataset.InferNumbers {
		t.Error("Dataset.InferNumbers = false, want true")
	}
	if cfg.Dataset.BatchSize != 1000 {
		t.Errorf("Dataset.BatchSize = %d, want 1000", cfg.Dataset.BatchSize)
	}
	if !cfg.Rate.Enabled || cfg.Rate.RequestsPerMinute != 300 {
		t.Errorf("Rate = %+v", cfg.Rate)
	}
	if cfg.UsesPostgres() {
		t.Error("UsesPostgres() = true for default config")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":           "9090",
		"DATASET_MAX_ROWS":      "50",
		"DATASET_INFER_NUMBERS": "false",
		"RULESETS_SEED_DEMO":    "true",
		"RULESETS_DEFAULT":      " Demo ",
		"TRUSTED_PROXIES":       "10.0.0.0/8, ,192.168.0.0/16",
		"LOG_LEVEL":             "debug",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Dataset.MaxRows != 50 {
		t.Errorf("Dataset.MaxRows = %d, want 50", cfg.Dataset.MaxRows)
	}
	if cfg.Dataset.InferNumbers {
		t.Error("Dataset.InferNumbers = true, want false")
	}
	if !cfg.RuleSets.SeedDemo {
		t.Error("RuleSets.SeedDemo = false, want true")
	}
	if cfg.RuleSets.Default != "Demo" {
		t.Errorf("RuleSets.Default = %q, want %q", cfg.RuleSets.Default, "Demo")
	}
	if got := strings.Join(cfg.Security.TrustedProxies, "|"); got != "10.0.0.0/8|192.168.0.0/16" {
		t.Errorf("Security.TrustedProxies = %v", cfg.Security.TrustedProxies)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_AltEnvVars(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"PORT":           "3000",
		"RULESETS_STORE": "postgres",
		"DB_URL":         "postgres://localhost/alt",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://localhost/alt" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if !cfg.UsesPostgres() {
		t.Error("UsesPostgres() = false")
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad int", map[string]string{"SERVER_PORT": "eighty"}, "SERVER_PORT"},
		{"bad duration", map[string]string{"RULESETS_CACHE_TTL": "soon"}, "RULESETS_CACHE_TTL"},
		{"bad bool", map[string]string{"RULESETS_SEED_DEMO": "maybe"}, "RULESETS_SEED_DEMO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.vars))
			if err == nil {
				t.Fatal("LoadFrom() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr []string
	}{
		{
			name:    "postgres without url",
			vars:    map[string]string{"RULESETS_STORE": "postgres"},
			wantErr: []string{"DATABASE_URL is required"},
		},
		{
			name:    "unknown store",
			vars:    map[string]string{"RULESETS_STORE": "redis"},
			wantErr: []string{"RULESETS_STORE"},
		},
		{
			name:    "auto migrate on memory store",
			vars:    map[string]string{"RULESETS_AUTO_MIGRATE": "true"},
			wantErr: []string{"RULESETS_AUTO_MIGRATE"},
		},
		{
			name: "pool bounds",
			vars: map[string]string{
				"RULESETS_STORE": "postgres",
				"DATABASE_URL":   "postgres://localhost/x",
				"DB_MAX_CONNS":   "2",
				"DB_MIN_CONNS":   "5",
			},
			wantErr: []string{"DB_MAX_CONNS (2) must be >= DB_MIN_CONNS (5)"},
		},
		{
			name:    "api key required without keys",
			vars:    map[string]string{"REQUIRE_API_KEY": "true"},
			wantErr: []string{"API_KEYS is empty"},
		},
		{
			name: "reports every problem",
			vars: map[string]string{
				"SERVER_PORT":      "70000",
				"DATASET_MAX_ROWS": "0",
				"LOG_LEVEL":        "loud",
				"LOG_FORMAT":       "xml",
			},
			wantErr: []string{"SERVER_PORT", "DATASET_MAX_ROWS", "LOG_LEVEL", "LOG_FORMAT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.vars))
			if err == nil {
				t.Fatal("LoadFrom() error = nil")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not contain %q", err, want)
				}
			}
		})
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "8181")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", cfg.Server.Port)
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"RULESETS_STORE": "postgres",
		"DATABASE_URL":   "postgres://user:hunter2@db/rules",
		"API_KEYS":       "k1-secret,k2-secret",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	s := cfg.String()
	for _, secret := range []string{"hunter2", "k1-secret", "k2-secret"} {
		if strings.Contains(s, secret) {
			t.Errorf("String() leaks %q: %s", secret, s)
		}
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want masked database URL", s)
	}
}
