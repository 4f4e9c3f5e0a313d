package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	DBMaxOpenConns int

	// Session
	SessionTTL time.Duration

	// Clustering（陣痛間隔の警告判定）
	ClusterThreshold time.Duration
	ClusterWindow    int

	// Identity
	// IdentityEncryptionKey はCPR番号の暗号化鍵（32バイトの16進文字列）。
	// 空の場合は暗号化ポリシーを無効とする。
	IdentityEncryptionKey string

	// Rate Limit（req/min/client）
	RateLimitGeneral int
	RateLimitLogin   int

	// Audit
	AuditRetentionDays int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// ENV_FILE が指定されていればそのdotenvファイルを、未指定ならカレントディレクトリの
// .env を（存在する場合のみ）先に読み込む。既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 2*time.Hour)
	cfg.ClusterThreshold = getEnvDuration("CLUSTER_THRESHOLD", 180*time.Second)
	cfg.ClusterWindow = getEnvInt("CLUSTER_WINDOW", 3)
	cfg.IdentityEncryptionKey = os.Getenv("IDENTITY_ENCRYPTION_KEY")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.AuditRetentionDays = getEnvInt("AUDIT_RETENTION_DAYS", 365)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.ClusterWindow < 2 {
		return nil, fmt.Errorf("CLUSTER_WINDOW must be at least 2, got %d", cfg.ClusterWindow)
	}

	return cfg, nil
}

// loadEnvFile はdotenvファイルを環境変数に読み込む。
// ENV_FILE を明示した場合のみ、ファイルが存在しないことをエラーとする。
func loadEnvFile() error {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}

	if _, err := os.Stat(defaultEnvFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(defaultEnvFile); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", defaultEnvFile, err)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
