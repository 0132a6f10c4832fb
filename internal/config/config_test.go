package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCUMENT_STORE", "")
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/maintenance")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("MIGRATION_CONCURRENCY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Driver != StoreDriverPostgres {
		t.Errorf("default store = %q", cfg.Store.Driver)
	}
	if cfg.Storage.Driver != StorageDriverLocal {
		t.Errorf("default storage = %q", cfg.Storage.Driver)
	}
	if cfg.Migration.Concurrency != 4 {
		t.Errorf("default concurrency = %d", cfg.Migration.Concurrency)
	}
	if cfg.Storage.LegacyRootMarker != "/maintenance/" {
		t.Errorf("default legacy marker = %q", cfg.Storage.LegacyRootMarker)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis cache should be opt-in, got addr %q", cfg.Redis.Addr)
	}
	if cfg.Logger.Format != "json" {
		t.Errorf("default log format = %q", cfg.Logger.Format)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{"DOCUMENT_STORE": "sqlite"}},
		{name: "postgres without dsn", env: map[string]string{"DOCUMENT_STORE": "postgres", "POSTGRES_DSN": ""}},
		{name: "unknown storage", env: map[string]string{"STORAGE_DRIVER": "s3"}},
		{name: "azure without connection string", env: map[string]string{
			"STORAGE_DRIVER":                  "azure",
			"AZURE_STORAGE_CONNECTION_STRING": "",
		}},
		{name: "bad redis db", env: map[string]string{"REDIS_DB": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected Load() to fail")
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "nope")
	t.Setenv("CFG_TEST_BOOL", "true")
	if got := getEnvAsInt("CFG_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt fallback = %d", got)
	}
	if !getEnvAsBool("CFG_TEST_BOOL", false) {
		t.Error("getEnvAsBool should parse true")
	}
	if got := getEnv("CFG_TEST_MISSING", "x"); got != "x" {
		t.Errorf("getEnv fallback = %q", got)
	}
}
