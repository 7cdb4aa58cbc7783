package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	AllowOrigin string

	DBDriver   string // postgres, mysql, sqlite or mongo
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBPath     string // sqlite file
	MongoURI   string
	MongoDB    string

	JWTKey      string
	JWTTTLHours int
	SaltRound   int

	OCRServiceURL     string
	OCRTimeoutSeconds int
	UploadDir         string

	RedisURL                string
	LeaderboardCacheSeconds int
	RabbitMQURL             string

	UnlockPolicy    string // review or sequential
	StreakTimezone  string
	StreakSweepCron string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		Env:         getEnv("APP_ENV", "development"),
		AllowOrigin: getEnv("CLIENT_ORIGINS", "http://localhost:5173"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "vietlingo"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBPath:     getEnv("DB_PATH", "vietlingo.db"),
		MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGO_DB", "vietlingo"),

		JWTKey:      getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 1),
		SaltRound:   getEnvInt("SALT_ROUND", 10),

		OCRServiceURL:     getEnv("OCR_SERVICE_URL", "http://localhost:5000"),
		OCRTimeoutSeconds: getEnvInt("OCR_TIMEOUT_SECONDS", 30),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads/drawings"),

		RedisURL:                getEnv("REDIS_URL", ""),
		LeaderboardCacheSeconds: getEnvInt("LEADERBOARD_CACHE_SECONDS", 30),
		RabbitMQURL:             getEnv("RABBITMQ_URL", ""),

		UnlockPolicy:    strings.ToLower(getEnv("UNLOCK_POLICY", "review")),
		StreakTimezone:  getEnv("STREAK_TIMEZONE", "Local"),
		StreakSweepCron: getEnv("STREAK_SWEEP_CRON", "5 0 * * *"),
	}
}

// Origins splits the comma separated CLIENT_ORIGINS value.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
