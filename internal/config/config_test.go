package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8787}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_InvalidDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memcached"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid driver")
	}
	expected := `database.driver must be "valkey" or "redis", got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_Retrieval(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		topK      int
		wantErr   bool
	}{
		{"defaults", 0.40, 1, false},
		{"zero threshold", 0, 3, false},
		{"negative threshold", -1, 1, false},
		{"threshold above one", 1.5, 1, true},
		{"threshold below minus one", -1.1, 1, true},
		{"zero top_k", 0.4, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			threshold := tc.threshold
			cfg.Retrieval.Threshold = &threshold
			cfg.Retrieval.TopK = tc.topK

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_Budget(t *testing.T) {
	tests := []struct {
		name    string
		budget  BudgetConfig
		wantErr bool
	}{
		{"disabled", BudgetConfig{Action: "warn"}, false},
		{"reject", BudgetConfig{DailyTokenLimit: 1000, Action: "reject"}, false},
		{"unknown action", BudgetConfig{DailyTokenLimit: 1000, Action: "block"}, true},
		{"negative limit", BudgetConfig{MonthlyTokenLimit: -1, Action: "warn"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget = tc.budget

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBudgetConfig_Enabled(t *testing.T) {
	if (BudgetConfig{}).Enabled() {
		t.Error("zero limits must disable the budget")
	}
	if !(BudgetConfig{MonthlyTokenLimit: 1}).Enabled() {
		t.Error("a monthly limit must enable the budget")
	}
}

func TestValidate_MissingCardsPath(t *testing.T) {
	cfg := validConfig()
	cfg.Cards.Path = " "

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing cards path")
	}
}

func TestValidate_CacheIsOptional(t *testing.T) {
	cfg := validConfig()
	if cfg.Database.Enabled() {
		t.Fatal("cache must be disabled without addrs")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8787 {
		t.Errorf("expected Port=8787, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.BaseURL != "https://api.deepseek.com/v1" {
		t.Errorf("unexpected BaseURL %q", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.Model != "deepseek-embedding-2" {
		t.Errorf("unexpected Model %q", cfg.Embedding.Model)
	}
	if cfg.Retrieval.ThresholdValue() != 0.40 {
		t.Errorf("expected Threshold=0.40, got %v", cfg.Retrieval.ThresholdValue())
	}
	if cfg.Retrieval.TopK != 1 {
		t.Errorf("expected TopK=1, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.BuildConcurrency != 1 {
		t.Errorf("expected BuildConcurrency=1, got %d", cfg.Retrieval.BuildConcurrency)
	}
	if cfg.Cards.Path != "data/case_cards.json" {
		t.Errorf("unexpected cards path %q", cfg.Cards.Path)
	}
	if cfg.Storage.KeyPrefix != "casecards:" {
		t.Errorf("expected KeyPrefix='casecards:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		HTTP:      HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		Retrieval: RetrievalConfig{Threshold: &zero, TopK: 3},
		Storage:   StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Retrieval.ThresholdValue() != 0 {
		t.Errorf("explicit zero threshold must survive defaults, got %v", cfg.Retrieval.ThresholdValue())
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("SIM_THRESHOLD", "0.55")
	t.Setenv("TOP_K", "")

	data := []byte(`
http:
  port: ${PORT_UNSET_FOR_TEST:-9001}
embedding:
  api_key: ${DS_API_KEY_UNSET_FOR_TEST}
retrieval:
  threshold: ${SIM_THRESHOLD:-0.40}
  top_k: ${TOP_K:-2}
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.HTTP.Port != 9001 {
		t.Errorf("expected Port=9001, got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "" {
		t.Errorf("expected empty api key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Retrieval.ThresholdValue() != 0.55 {
		t.Errorf("expected Threshold=0.55, got %v", cfg.Retrieval.ThresholdValue())
	}
	if cfg.Retrieval.TopK != 2 {
		t.Errorf("expected TopK=2 from default, got %d", cfg.Retrieval.TopK)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("retrieval:\n  top_k: [1")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("retrieval:\n  threshold: 3")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CASECARDS_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CASECARDS_DOTENV_TEST", "")
	os.Unsetenv("CASECARDS_DOTENV_TEST")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("CASECARDS_DOTENV_TEST"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
}
