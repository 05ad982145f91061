package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Ranking.Limit != 50 {
		t.Errorf("ranking limit = %d, want 50", cfg.Ranking.Limit)
	}
	if cfg.Ranking.BalanceWeight != 0.5 {
		t.Errorf("balance weight = %g, want 0.5", cfg.Ranking.BalanceWeight)
	}
	if cfg.Oracle.Source != "file" {
		t.Errorf("oracle source = %q, want file", cfg.Oracle.Source)
	}
	if cfg.Kafka.Topics.DocumentsAnnotated != "vocab.documents.annotated" {
		t.Errorf("topic = %q", cfg.Kafka.Topics.DocumentsAnnotated)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
oracle:
  source: none
ranking:
  limit: 10
  balanceWeight: 0.7
  maxRefZipf: 6.5
  ignorePatterns:
    - "rp*"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Ranking.Limit != 10 {
		t.Errorf("ranking limit = %d, want 10", cfg.Ranking.Limit)
	}
	if cfg.Ranking.MaxRefZipf == nil || *cfg.Ranking.MaxRefZipf != 6.5 {
		t.Errorf("maxRefZipf = %v, want 6.5", cfg.Ranking.MaxRefZipf)
	}
	if cfg.Oracle.Source != "none" {
		t.Errorf("oracle source = %q, want none", cfg.Oracle.Source)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Ranking.LemmaMargin != 0.5 {
		t.Errorf("lemma margin = %g, want default 0.5", cfg.Ranking.LemmaMargin)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		content string
	}{
		{"zero limit", "ranking:\n  limit: 0\n"},
		{"negative min zipf", "ranking:\n  minRefZipf: -1\n"},
		{"inverted zipf range", "ranking:\n  minRefZipf: 5\n  maxRefZipf: 3\n"},
		{"negative margin", "ranking:\n  lemmaMargin: -0.5\n"},
		{"malformed ignore pattern", "ranking:\n  ignorePatterns: [\"[\"]\n"},
		{"unknown oracle source", "oracle:\n  source: carrier-pigeon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(write(t, tt.content)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VR_SERVER_PORT", "7777")
	t.Setenv("VR_ORACLE_SOURCE", "none")
	t.Setenv("VR_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("VR_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("server port = %d, want 7777", cfg.Server.Port)
	}
	if cfg.Oracle.Source != "none" {
		t.Errorf("oracle source = %q, want none", cfg.Oracle.Source)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidatePassesCleanSettings(t *testing.T) {
	max := 6.0
	r := RankingConfig{
		Limit:          25,
		MinRefZipf:     2,
		MaxRefZipf:     &max,
		LemmaMargin:    0.5,
		IgnorePatterns: []string{"rp*", " *123 ", ""},
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
