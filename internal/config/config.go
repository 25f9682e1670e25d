package config

import (
	"fmt"
	"os"
	"strings"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット

	Database DatabaseConfig

	RedisAddr    string   // 空ならキャッシュ無効
	KafkaBrokers []string // 空ならイベント発行無効

	ServiceName string // イベントのproducer名
}

// DatabaseConfigはPostgres接続設定。
type DatabaseConfig struct {
	URL      string // DATABASE_URL。あれば最優先
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSNはgormに渡す接続文字列を返す。
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Loadは環境変数から読む。
func Load() (Config, error) {
	cfg := Config{
		Port:         getenv("PORT", "8080"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		Database:     LoadDatabase(),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		ServiceName:  getenv("SERVICE_NAME", "order-api"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// LoadDatabaseはDB設定だけを読む。JWTの要らないseedコマンドもこれを使う。
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getenv("POSTGRES_HOST", "localhost"),
		Port:     getenv("POSTGRES_PORT", "5432"),
		User:     getenv("POSTGRES_USER", "postgres"),
		Password: getenv("POSTGRES_PASSWORD", "postgres"),
		Name:     getenv("POSTGRES_DB", "app"),
		SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
	}
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
