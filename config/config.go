package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Admission AdmissionConfig
	Queue     QueueConfig
	Cache     CacheConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// AdmissionConfig 購票規則設定
type AdmissionConfig struct {
	// 每位使用者在同一活動可持有的票券總數上限（不分票種）
	MaxTicketsPerUser int
}

type QueueConfig struct {
	// memory 或 redis
	Driver     string
	BufferSize int
	ConsumerID string
}

type CacheConfig struct {
	AvailabilityTTL time.Duration
}

const (
	QueueDriverMemory = "memory"
	QueueDriverRedis  = "redis"
)

// DefaultJWTSecret 未設定 JWT_SECRET 時的值，只允許在 debug 模式使用
const DefaultJWTSecret = "change-me"

var ErrDefaultJWTSecret = errors.New("JWT_SECRET is not set")

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:    GetServerConfig(),
		Database:  GetDatabaseConfig(),
		Redis:     GetRedisConfig(),
		Auth:      GetAuthConfig(),
		Admission: GetAdmissionConfig(),
		Queue:     GetQueueConfig(),
		Cache:     GetCacheConfig(),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}

	return AppConfig
}

// Validate 檢查啟動前必須明確設定的值
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == DefaultJWTSecret && c.LogLevel != "debug" {
		return ErrDefaultJWTSecret
	}
	return nil
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5433"), // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnv("TEST_REDIS_PORT", "6380"), // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Server: ServerConfig{
			Port:            "0",
			ShutdownTimeout: time.Second,
		},
		Database: *testConfig,
		Redis:    testRedisConfig,
		Auth: AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
		Admission: AdmissionConfig{MaxTicketsPerUser: 4},
		Queue:     QueueConfig{Driver: QueueDriverMemory, BufferSize: 100},
		Cache:     CacheConfig{AvailabilityTTL: time.Minute},
		LogLevel:  "debug",
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "8080"),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", "http://localhost:5173"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", "10s"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:  getEnvAsDuration("JWT_TTL", "24h"),
	}
}

func GetAdmissionConfig() AdmissionConfig {
	return AdmissionConfig{
		MaxTicketsPerUser: getEnvAsInt("MAX_TICKETS_PER_USER", 4),
	}
}

func GetQueueConfig() QueueConfig {
	return QueueConfig{
		Driver:     getEnv("QUEUE_DRIVER", QueueDriverMemory),
		BufferSize: getEnvAsInt("QUEUE_BUFFER_SIZE", 1000),
		ConsumerID: getEnv("QUEUE_CONSUMER_ID", ""),
	}
}

func GetCacheConfig() CacheConfig {
	return CacheConfig{
		AvailabilityTTL: getEnvAsDuration("AVAILABILITY_CACHE_TTL", "5m"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key, fallback string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, fallback)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

func getEnvAsList(key, fallback string) []string {
	parts := strings.Split(getEnv(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
