package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/utils"
)

const configFileEnv = "FILATRACK_CONFIG_YAML"

type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`

	RedisAddr string `yaml:"redis_addr"`

	CORSOrigins []string `yaml:"cors_origins"`
}

// Load reads configuration from the environment, then lets an optional YAML
// file pointed at by FILATRACK_CONFIG_YAML override individual fields.
func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Port:            utils.GetEnv("PORT", "8080", log),
		LogMode:         utils.GetEnv("LOG_MODE", "development", log),
		JWTSecretKey:    utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:  time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTokenTTL: time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,
		RedisAddr:       utils.GetEnv("REDIS_ADDR", "", log),
	}

	origins := utils.GetEnv("CORS_ORIGINS", "http://localhost:3000", log)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	path := strings.TrimSpace(os.Getenv(configFileEnv))
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if log != nil {
		log.Info("Applied YAML config overrides", "path", path)
	}
	return cfg, nil
}
