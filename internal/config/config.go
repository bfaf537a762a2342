// Package config loads the console host configuration from flags and
// environment variables. Environment wins over flag defaults.
package config

import "os"

type Config struct {
	Addr      string // listen address of the host server
	APIURL    string // base URL the browser client calls
	DBPath    string // sqlite path for the bundled dev backend
	JWTSecret string // signing secret for dev backend tokens
	DevAPI    bool   // mount the dev backend under /api/
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func Load(flagAddr, flagDB string, flagDevAPI bool) Config {
	return Config{
		Addr:      getEnv("CONSOLE_ADDR", flagAddr),
		APIURL:    getEnv("CONSOLE_API_URL", "http://localhost:8000/api"),
		DBPath:    getEnv("CONSOLE_DB", flagDB),
		JWTSecret: getEnv("CONSOLE_JWT_SECRET", "dev-secret-change-me"),
		DevAPI:    flagDevAPI,
	}
}
