package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	// BaseURL covers both the REST API and the websocket endpoint.
	BaseURL string
	// DBFile is where the session token store lives.
	DBFile string
	// Env switches log formatting ("dev" gets the console writer).
	Env string
}

func Load() *Config {
	return &Config{
		BaseURL: getEnv("CHAT_API_URL", "http://localhost:8080"),
		DBFile:  getEnv("POGAWEDKA_DB", defaultDBFile()),
		Env:     getEnv("POGAWEDKA_ENV", "dev"),
	}
}

func defaultDBFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pogawedka.db"
	}
	return filepath.Join(dir, "pogawedka", "session.db")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
