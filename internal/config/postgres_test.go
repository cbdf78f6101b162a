package config

import (
	"testing"
)

func TestLoadPostgresConfig(t *testing.T) {
	env := map[string]string{
		"POSTGRES_USER":     "harness",
		"POSTGRES_PASSWORD": "secret",
		"POSTGRES_DB":       "runs",
		"POSTGRES_HOSTNAME": "db",
	}

	tests := []struct {
		name    string
		unset   string
		wantErr bool
	}{
		{name: "all values present"},
		{name: "password is optional", unset: "POSTGRES_PASSWORD"},
		{name: "missing user", unset: "POSTGRES_USER", wantErr: true},
		{name: "missing database", unset: "POSTGRES_DB", wantErr: true},
		{name: "missing host", unset: "POSTGRES_HOSTNAME", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string {
				if key == tt.unset {
					return ""
				}
				return env[key]
			}

			cfg, err := LoadPostgresConfig(getenv)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadPostgresConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Port != "5432" {
				t.Errorf("expected default port 5432, got %s", cfg.Port)
			}
			if cfg.SSLMode != "disable" {
				t.Errorf("expected default sslmode disable, got %s", cfg.SSLMode)
			}
		})
	}
}

func TestPostgresConfig_ConnectionString(t *testing.T) {
	cfg := &PostgresConfig{User: "harness", Database: "runs", Host: "db", Port: "5433", SSLMode: "require"}
	want := "host=db port=5433 user=harness dbname=runs sslmode=require"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	cfg.Password = "secret"
	want += " password=secret"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
