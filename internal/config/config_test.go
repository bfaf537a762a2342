package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load(":8000", "console.db", true)
	if cfg.Addr != ":8000" {
		t.Errorf("Addr = %q, want :8000", cfg.Addr)
	}
	if cfg.DBPath != "console.db" {
		t.Errorf("DBPath = %q, want console.db", cfg.DBPath)
	}
	if !cfg.DevAPI {
		t.Error("DevAPI = false, want true")
	}
	if cfg.APIURL != "http://localhost:8000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestEnvOverridesFlags(t *testing.T) {
	t.Setenv("CONSOLE_ADDR", ":9999")
	t.Setenv("CONSOLE_API_URL", "https://crm.example.com/api")
	t.Setenv("CONSOLE_JWT_SECRET", "s3cret")

	cfg := Load(":8000", "console.db", false)
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.APIURL != "https://crm.example.com/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}
