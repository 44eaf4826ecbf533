package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey  string
	MongoURI      string
	MongoDatabase string
	HTTPPort      string
	LogLevel      string
	AppEnv        string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "chatapp"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		AppEnv:        getEnv("APP_ENV", "production"),
	}

	// A missing Gemini key is deliberately not fatal: the server must still
	// come up and answer chat requests with 503 until the key is provided.
	if AppConfig.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY is not set, chat requests will fail with 503")
	}
}

// IsDevelopment controls whether error details are included in 500 responses.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
