package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置，封面对象的预签名链接
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string
	CoverURLExpiry time.Duration

	JWTSecret string

	// AI DJ 推荐服务配置
	AIDJServiceURL   string
	AIDJTimeout      time.Duration
	AIDJDefaultLimit int
	AIDJMaxLimit     int
	AIDJCacheTTL     time.Duration

	LogLevel string
	LogFile  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool 读取布尔环境变量
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("5s", "300ms") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return fromEnv()
}

// fromEnv 只读取当前进程环境，不触碰 .env 文件
func fromEnv() *Config {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "sipsound"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "sipsound"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		CoverURLExpiry: getEnvDuration("MINIO_COVER_URL_EXPIRY", time.Hour),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AIDJServiceURL:   getEnv("AI_DJ_SERVICE_URL", "http://localhost:5001"),
		AIDJTimeout:      getEnvDuration("AI_DJ_TIMEOUT", 5*time.Second),
		AIDJDefaultLimit: getEnvInt("AI_DJ_DEFAULT_LIMIT", 25),
		AIDJMaxLimit:     getEnvInt("AI_DJ_MAX_LIMIT", 50),
		AIDJCacheTTL:     getEnvDuration("AI_DJ_CACHE_TTL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
	cfg.normalize()
	return cfg
}

// normalize 修正明显不合法的取值
func (c *Config) normalize() {
	if c.AIDJMaxLimit <= 0 {
		c.AIDJMaxLimit = 50
	}
	if c.AIDJDefaultLimit <= 0 {
		c.AIDJDefaultLimit = 25
	}
	if c.AIDJDefaultLimit > c.AIDJMaxLimit {
		c.AIDJDefaultLimit = c.AIDJMaxLimit
	}
	if c.AIDJTimeout <= 0 {
		c.AIDJTimeout = 5 * time.Second
	}
}
