package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Logger       Logger   `yaml:"logger"`
	Storage      Storage  `yaml:"storage"`
	Auth         Auth     `yaml:"auth"`
	Listen       string   `yaml:"listen"`
	Admin        Admin    `yaml:"admin"`
	CORS         CORS     `yaml:"cors"`
	ContestsRoot string   `yaml:"contests_root"`
	Finalize     Finalize `yaml:"finalize"`
}

type Logger struct {
	Level string `yaml:"level"`
}

type Storage struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver   string `yaml:"driver"`
	Database string `yaml:"database"`
}

type Auth struct {
	JWT JWT `yaml:"jwt"`
}

type JWT struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`

	// Bootstrap creates this administrator at startup if the username is free.
	Bootstrap Bootstrap `yaml:"bootstrap"`
}

type Bootstrap struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Finalize struct {
	// AllowBeforeEnd permits finalizing a contest whose end time has not passed yet.
	AllowBeforeEnd bool `yaml:"allow_before_end"`
}

const (
	EnvJWTSecret = "CONTESTD_JWT_SECRET"
	EnvDatabase  = "CONTESTD_DATABASE"
	EnvAdminPass = "CONTESTD_ADMIN_PASSWORD"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	// .env is optional; a missing file is not an error. Load runs before the
	// logger exists, so a malformed one is reported to the caller.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWT.Secret = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Storage.Database = v
	}
	if v := os.Getenv(EnvAdminPass); v != "" {
		c.Admin.Bootstrap.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Auth.JWT.ExpireHours == 0 {
		c.Auth.JWT.ExpireHours = 24
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
}
