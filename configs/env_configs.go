package configs

import (
	"context"
	"os"

	"github.com/joho/godotenv"
)

var Ctx = context.Background()

// LoadEnv pulls a .env file into the environment if one exists. Missing
// files are fine; deployed instances get real environment variables.
func LoadEnv() {
	_ = godotenv.Load()
}

// Env returns the variable value or fallback when unset.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
