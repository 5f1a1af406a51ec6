package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	HTTPAddr       string
	DBDriver       string
	DatabaseURL    string
	JWTSecret      string
	EncryptionSalt string
	CookieSecure   bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuditKafkaBrokers []string
	AuditKafkaTopic   string

	ReconcileSchedule string
}

// Load 先读 .env（可选），再从环境变量组装配置
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	return &Config{
		HTTPAddr:          GetEnv("HTTP_ADDR", ":8080"),
		DBDriver:          strings.ToLower(GetEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:       os.Getenv("LOCAL_DB_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		EncryptionSalt:    os.Getenv("ENCRYPTION_SALT"),
		CookieSecure:      GetEnvBool("COOKIE_SECURE", false),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           GetEnvInt("REDIS_DB", 0),
		AuditKafkaBrokers: splitList(os.Getenv("AUDIT_KAFKA_BROKERS")),
		AuditKafkaTopic:   GetEnv("AUDIT_KAFKA_TOPIC", "audit-logs"),
		ReconcileSchedule: LookupEnv("RECONCILE_SCHEDULE", "@every 15m"),
	}
}

// DatabaseConfigured 数据库连接串和 JWT 密钥都存在才算可用
func (c *Config) DatabaseConfigured() bool {
	return c.DatabaseURL != "" && c.JWTSecret != ""
}

func GetEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// LookupEnv 只有变量未设置时才用默认值，设置为空串表示关闭
func LookupEnv(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func GetEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
