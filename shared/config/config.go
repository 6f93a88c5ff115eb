package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret      string
	JWTExpireHours string
	JWTIssuer      string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// Capability cache TTL in seconds, 0 disables caching
	CapabilityCacheTTLSeconds string

	// Rate Limiting
	RateLimitMaxRequests          string
	RateLimitTimeWindowSeconds    string
	RateLimitBlockDurationMinutes string

	// Route allow-list override (YAML)
	RouteAccessFile string

	// Frontend URL
	FrontendURL string

	// Service URLs
	APIGatewayURL      string
	RBACServiceURL     string
	EmployeeServiceURL string
	AttendanceURL      string
	PayrollURL         string
	OrganizationURL    string
	DeviceServiceURL   string

	// Seeder
	SeedDemoData bool
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = FromEnv()
	log.Println("✅ Configuration loaded successfully")
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "hrms"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JWTExpireHours: getEnv("JWT_EXPIRE_HOURS", "8"),
		JWTIssuer:      getEnv("JWT_ISSUER", "hrms-auth"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		CapabilityCacheTTLSeconds: getEnv("CAPABILITY_CACHE_TTL_SECONDS", "300"),

		RateLimitMaxRequests:          getEnv("RATE_LIMIT_MAX_REQUESTS", "100"),
		RateLimitTimeWindowSeconds:    getEnv("RATE_LIMIT_TIME_WINDOW_SECONDS", "60"),
		RateLimitBlockDurationMinutes: getEnv("RATE_LIMIT_BLOCK_DURATION_MINUTES", "15"),

		RouteAccessFile: getEnv("ROUTE_ACCESS_FILE", ""),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		APIGatewayURL:      getEnv("API_GATEWAY_URL", "http://localhost:8000"),
		RBACServiceURL:     getEnv("RBAC_SERVICE_URL", "http://localhost:8002"),
		EmployeeServiceURL: getEnv("EMPLOYEE_SERVICE_URL", "http://localhost:8011"),
		AttendanceURL:      getEnv("ATTENDANCE_SERVICE_URL", "http://localhost:8012"),
		PayrollURL:         getEnv("PAYROLL_SERVICE_URL", "http://localhost:8013"),
		OrganizationURL:    getEnv("ORGANIZATION_SERVICE_URL", "http://localhost:8014"),
		DeviceServiceURL:   getEnv("DEVICE_SERVICE_URL", "http://localhost:8015"),

		SeedDemoData: getEnvAsBool("SEED_DEMO_DATA", true),
	}
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func atoiOr(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

// GetJWTExpiry returns the access token lifetime
func (c *Config) GetJWTExpiry() time.Duration {
	return time.Duration(atoiOr(c.JWTExpireHours, 8)) * time.Hour
}

// GetRedisDB returns the redis database index as integer
func (c *Config) GetRedisDB() int {
	return atoiOr(c.RedisDB, 0)
}

// GetCapabilityCacheTTL returns how long capability decisions stay cached
func (c *Config) GetCapabilityCacheTTL() time.Duration {
	return time.Duration(atoiOr(c.CapabilityCacheTTLSeconds, 300)) * time.Second
}

// GetRateLimitMaxRequests returns the rate limit max requests as integer
func (c *Config) GetRateLimitMaxRequests() int {
	return atoiOr(c.RateLimitMaxRequests, 100)
}

// GetRateLimitTimeWindowSeconds returns the rate limit time window as integer
func (c *Config) GetRateLimitTimeWindowSeconds() int {
	return atoiOr(c.RateLimitTimeWindowSeconds, 60)
}

// GetRateLimitBlockDurationMinutes returns the rate limit block duration as integer
func (c *Config) GetRateLimitBlockDurationMinutes() int {
	return atoiOr(c.RateLimitBlockDurationMinutes, 15)
}

// PortFromURL returns the port of a service URL such as http://localhost:8002
func PortFromURL(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Port() == "" {
		return fallback
	}
	return u.Port()
}
