package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/promociones-residenciales/reservas/backend/model"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Minio     MinioConfig     `yaml:"minio"`
	Auth      AuthConfig      `yaml:"auth"`
	Contract  ContractConfig  `yaml:"contract"`
	Promoter  model.Promoter  `yaml:"promoter"`
	Promotion model.Promotion `yaml:"promotion"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the persistence gateway: memory, sqlite or postgres.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	Debug        bool   `yaml:"debug"`
	MaxErrorLogs int    `yaml:"max_error_logs"`
}

// StorageConfig selects the blob store: minio or local.
type StorageConfig struct {
	Driver         string `yaml:"driver"`
	PublicBaseURL  string `yaml:"public_base_url"`
	LocalDir       string `yaml:"local_dir"`
	SignedPrefix   string `yaml:"signed_prefix"`
	TemplatePrefix string `yaml:"template_prefix"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// ContractConfig holds the economic and calendar constants of the contract.
type ContractConfig struct {
	ReservationAmount  float64 `yaml:"reservation_amount"`
	VATRate            float64 `yaml:"vat_rate"`
	ArrasDays          int     `yaml:"arras_days"`
	NotarizationMonths int     `yaml:"notarization_months"`
	Compress           *bool   `yaml:"compress"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// User is an administrator allowed to use the protected API.
// PasswordHash is a bcrypt hash.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

var GlobalConfig *Config

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are ignored; variables already set win.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	GlobalConfig = &cfg
	return &cfg, nil
}

// applyEnv lets RESERVAS_* variables override secrets and connection strings.
func (c *Config) applyEnv() {
	if v := os.Getenv("RESERVAS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("RESERVAS_DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("RESERVAS_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("RESERVAS_MINIO_ACCESS_KEY"); v != "" {
		c.Minio.AccessKey = v
	}
	if v := os.Getenv("RESERVAS_MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
	if v := os.Getenv("RESERVAS_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("RESERVAS_PUBLIC_BASE_URL"); v != "" {
		c.Storage.PublicBaseURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "reservas.db"
	}
	if c.Database.MaxErrorLogs == 0 {
		c.Database.MaxErrorLogs = 1000
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "./data/files"
	}
	if c.Storage.SignedPrefix == "" {
		c.Storage.SignedPrefix = "contratos"
	}
	if c.Storage.TemplatePrefix == "" {
		c.Storage.TemplatePrefix = "plantillas"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Contract.ReservationAmount == 0 {
		c.Contract.ReservationAmount = 6000
	}
	if c.Contract.VATRate == 0 {
		c.Contract.VATRate = 0.10
	}
	if c.Contract.ArrasDays == 0 {
		c.Contract.ArrasDays = 15
	}
	if c.Contract.NotarizationMonths == 0 {
		c.Contract.NotarizationMonths = 6
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
}

// CompressPDF reports whether rendered PDFs use compressed streams (default true).
func (c ContractConfig) CompressPDF() bool {
	return c.Compress == nil || *c.Compress
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
