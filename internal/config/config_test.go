package config

import (
	"os"
	"testing"
)

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"PORT", "ENV",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_POOL_MIN", "DB_POOL_MAX",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"PAYMENT_WEBHOOK_SECRET", "MAIL_RELAY_URL", "ADMIN_EMAIL",
		"CORS_ORIGINS",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnvVars(t)

	// Password has no default
	os.Setenv("DB_PASSWORD", "testpass")
	defer os.Unsetenv("DB_PASSWORD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Name != "geofoncier" {
		t.Errorf("Expected db name geofoncier, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMin != 2 {
		t.Errorf("Expected pool min 2, got %d", cfg.Database.PoolMin)
	}
	if cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool max 10, got %d", cfg.Database.PoolMax)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Expected cache disabled by default, got addr %s", cfg.Redis.Addr)
	}
	if cfg.Notify.AdminEmail == "" {
		t.Error("Expected a default admin email")
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnvVars(t)

	os.Setenv("PORT", "9090")
	os.Setenv("ENV", "staging")
	os.Setenv("DB_HOST", "db.internal")
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("REDIS_ADDR", "localhost:6379")
	os.Setenv("REDIS_DB", "3")
	os.Setenv("PAYMENT_WEBHOOK_SECRET", "hook-secret")
	os.Setenv("MAIL_RELAY_URL", "http://relay.internal/send")
	os.Setenv("CORS_ORIGINS", "https://app.example.com")
	defer clearConfigEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected host db.internal, got %s", cfg.Database.Host)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected redis addr localhost:6379, got %s", cfg.Redis.Addr)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Expected redis db 3, got %d", cfg.Redis.DB)
	}
	if cfg.Payment.WebhookSecret != "hook-secret" {
		t.Errorf("Expected webhook secret to be read, got %q", cfg.Payment.WebhookSecret)
	}
	if cfg.Notify.RelayURL != "http://relay.internal/send" {
		t.Errorf("Expected relay url to be read, got %q", cfg.Notify.RelayURL)
	}
	if len(cfg.CORS.Origins) != 1 || cfg.CORS.Origins[0] != "https://app.example.com" {
		t.Errorf("Expected single origin, got %v", cfg.CORS.Origins)
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	clearConfigEnvVars(t)

	if _, err := Load(); err == nil {
		t.Error("Expected Load() to fail without DB_PASSWORD")
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := validTestConfig()
	cfg.Database.PoolMin = 20
	cfg.Database.PoolMax = 10

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation to fail when pool min exceeds pool max")
	}
}

func TestValidate_WebhookSecretRequiredInProduction(t *testing.T) {
	cfg := validTestConfig()
	cfg.Server.Env = "production"
	cfg.Payment.WebhookSecret = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation to fail without a webhook secret in production")
	}

	cfg.Payment.WebhookSecret = "hook-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected validation to pass with a secret, got %v", err)
	}
}

func TestParseOrigins(t *testing.T) {
	origins := parseOrigins(" https://a.example.com , https://b.example.com,, ")
	if len(origins) != 2 {
		t.Fatalf("Expected 2 origins, got %d: %v", len(origins), origins)
	}
	if origins[0] != "https://a.example.com" {
		t.Errorf("Expected trimmed origin, got %q", origins[0])
	}
}

func validTestConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Database: DatabaseConfig{
			Host: "localhost", Port: "5432", Name: "geofoncier",
			User: "postgres", Password: "testpass",
			PoolMin: 2, PoolMax: 10,
		},
		Notify: NotifyConfig{AdminEmail: "admin@geofoncier.example"},
		CORS:   CORSConfig{Origins: []string{"http://localhost:3000"}},
	}
}
