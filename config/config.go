package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	Env        string

	// DBDriver selects the backing store: "mysql" or "sqlite".
	DBDriver  string
	MysqlDSN  string
	SQLiteDSN string

	// RedisURL enables the Redis notification sink when set.
	RedisURL string

	JWTSecret string
}

var Cfg *Config

func Load() {
	// .env is for local development only; missing file is fine.
	_ = godotenv.Load()

	Cfg = &Config{
		ServerAddr: ":" + getEnv("PORT", "8080"),
		Env:        getEnv("ENV", "development"),
		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		MysqlDSN:   getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/mingle?charset=utf8mb4&parseTime=True&loc=UTC"),
		SQLiteDSN:  getEnv("SQLITE_DSN", "./mingle.db"),
		RedisURL:   os.Getenv("REDIS_URL"),
		JWTSecret:  getEnv("JWT_SECRET", "mingle-secret-key-change-in-production"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
