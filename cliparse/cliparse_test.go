// cliparse/cliparse_test.go
package cliparse

import (
	"log/slog"
	"testing"
	"time"
)

func TestParseFlags_EnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BOOTSTRAP_ADMIN", "root")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabasePostgres {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %s", cfg.StoreTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.BootstrapAdmin != "root" {
		t.Errorf("expected bootstrap admin root, got %q", cfg.BootstrapAdmin)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-store-timeout", "750ms"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.StoreTimeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", cfg.StoreTimeout)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := ParseFlags([]string{"-d", "file:test.db"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if cfg.DatabaseType != DatabaseSQLite {
		t.Errorf("expected sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.StoreTimeout != defaultStoreTimeout {
		t.Errorf("expected default timeout, got %s", cfg.StoreTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.LogLevel)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing database url", []string{}},
		{"bad database type", []string{"-d", "x", "-t", "mysql"}},
		{"bad log level", []string{"-d", "x", "-log-level", "loud"}},
		{"negative timeout", []string{"-d", "x", "-store-timeout", "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("DATABASE_TYPE", "")
			t.Setenv("LOG_LEVEL", "")
			t.Setenv("STORE_TIMEOUT", "")
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
