package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
	URLTTLHours     int
}

type LedgerConfig struct {
	// Backend is one of csv, postgres, sqlite.
	Backend         string
	DataDir         string
	SQLitePath      string
	AllocationOrder string
}

type AppConfig struct {
	Port     string
	LogLevel string

	Ledger   LedgerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	S3       S3Config

	// StorageDriver is local or s3.
	StorageDriver     string
	ExportDir         string
	FilesPublicPrefix string
	ExternalURL       string
	ExportTTLMinutes  int
	FileRetentionMins int

	// Tokens maps a static bearer token to the ledger user it authenticates.
	Tokens map[string]string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func mustOneOf(key, v string, allowed ...string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	log.Fatalf("invalid %s value %q: expected one of %s", key, v, strings.Join(allowed, ", "))
	return ""
}

// ParseTokens reads "token:user" pairs separated by commas. Malformed pairs are skipped.
func ParseTokens(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		token, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		token, user = strings.TrimSpace(token), strings.TrimSpace(user)
		if !ok || token == "" || user == "" {
			continue
		}
		out[token] = user
	}
	return out
}

func Load() AppConfig {
	return AppConfig{
		Port:     getenv("APP_PORT", "8010"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Ledger: LedgerConfig{
			Backend:         mustOneOf("LEDGER_BACKEND", getenv("LEDGER_BACKEND", "csv"), "csv", "postgres", "sqlite"),
			DataDir:         getenv("LEDGER_DATA_DIR", "./data"),
			SQLitePath:      getenv("SQLITE_PATH", "./data/ledger.db"),
			AllocationOrder: mustOneOf("LEDGER_ALLOCATION_ORDER", getenv("LEDGER_ALLOCATION_ORDER", "encounter"), "encounter", "oldest_first"),
		},
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "ledger"),
			Password: getenv("PG_PASSWORD", ""),
			DBName:   getenv("PG_DB", "utang"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "utang_ledger_"),
		},
		S3: S3Config{
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "ledger-exports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
			URLTTLHours:     mustAtoi(getenv("S3_URL_TTL_HOURS", "48")),
		},
		StorageDriver:     mustOneOf("STORAGE_DRIVER", getenv("STORAGE_DRIVER", "local"), "local", "s3"),
		ExportDir:         getenv("EXPORT_DIR", "./exports"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
		ExternalURL:       getenv("EXTERNAL_URL", ""),
		ExportTTLMinutes:  mustAtoi(getenv("EXPORT_TTL_MINUTES", "20")),
		FileRetentionMins: mustAtoi(getenv("FILE_RETENTION_MINUTES", "30")),
		Tokens:            ParseTokens(getenv("LEDGER_TOKENS", "")),
	}
}
