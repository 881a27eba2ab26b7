package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tasknest/internal/model"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort    string
	StorageDriver string
	SQLitePath    string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	SwaggerHost   string
	LogLevel      string
	LogFile       string
	AccountsFile  string
	RemoteURL     string
}

// ReservedAccount is a predefined identity with a fixed password.
// Its email can be logged into but never registered.
type ReservedAccount struct {
	ID       string     `yaml:"id"`
	Email    string     `yaml:"email"`
	Name     string     `yaml:"name"`
	Password string     `yaml:"password"`
	Role     model.Role `yaml:"role"`
}

type accountsFile struct {
	Accounts []ReservedAccount `yaml:"accounts"`
}

// DefaultAccounts is the built-in admin/user credential pair.
var DefaultAccounts = []ReservedAccount{
	{ID: "1", Email: "admin@tasknest.local", Name: "Admin", Password: "admin123", Role: model.RoleAdmin},
	{ID: "2", Email: "user@tasknest.local", Name: "User", Password: "user123", Role: model.RoleUser},
}

// Load builds Config from environment with sensible defaults. A .env file in the
// working directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		StorageDriver: getEnv("STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "tasknest.db"),
		MySQLDSN:      getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/tasknest?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPass:     os.Getenv("REDIS_PASSWORD"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "tasknest"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		SwaggerHost:   os.Getenv("SWAGGER_HOST"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		AccountsFile:  os.Getenv("ACCOUNTS_FILE"),
		RemoteURL:     os.Getenv("REMOTE_URL"),
	}
}

// ReservedAccounts returns the accounts from AccountsFile, or DefaultAccounts when unset.
func (c *Config) ReservedAccounts() ([]ReservedAccount, error) {
	if c.AccountsFile == "" {
		out := make([]ReservedAccount, len(DefaultAccounts))
		copy(out, DefaultAccounts)
		return out, nil
	}
	data, err := os.ReadFile(c.AccountsFile)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	return ParseAccounts(data)
}

// ParseAccounts decodes a YAML accounts document and checks every entry.
func ParseAccounts(data []byte) ([]ReservedAccount, error) {
	var doc accountsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse accounts: %w", err)
	}
	seen := make(map[string]bool, len(doc.Accounts))
	for i, acc := range doc.Accounts {
		if acc.ID == "" || acc.Email == "" || acc.Password == "" {
			return nil, fmt.Errorf("account %d: id, email and password are required", i)
		}
		if acc.Role == "" {
			doc.Accounts[i].Role = model.RoleUser
		} else if !acc.Role.Valid() {
			return nil, fmt.Errorf("account %s: unknown role %q", acc.Email, acc.Role)
		}
		if seen[acc.Email] {
			return nil, fmt.Errorf("account %s: duplicate email", acc.Email)
		}
		seen[acc.Email] = true
	}
	return doc.Accounts, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
