package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting. Defaults match the service's historic
// fixed port, key and data file.
type Config struct {
	Port     string
	LogLevel string

	Auth struct {
		Mode       string // "apikey" or "jwt"
		APIKey     string
		APIKeyHash string
		JWTSecret  string
		JWTRole    string // required role claim, empty accepts any
		JWTTTL     time.Duration
	}

	Store struct {
		Driver          string // "file", "mongo" or "sqlite"
		DataFile        string
		MongoURI        string
		MongoDB         string
		MongoCollection string
		SQLitePath      string
	}

	Redis struct {
		URL     string
		Channel string
	}

	CORSOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_MODE", "apikey")
	v.SetDefault("API_KEY", "mysecureapikey")
	v.SetDefault("API_KEY_HASH", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ROLE", "")
	v.SetDefault("JWT_EXP_MIN", 60)
	v.SetDefault("STORE_DRIVER", "file")
	v.SetDefault("DATA_FILE", "data/events.json")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DB", "events")
	v.SetDefault("MONGO_COLLECTION", "events")
	v.SetDefault("SQLITE_PATH", "data/events.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_CHANNEL", "events")
	v.SetDefault("CORS_ORIGINS", "*")
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	cfg.Port = v.GetString("PORT")
	cfg.LogLevel = strings.ToLower(v.GetString("LOG_LEVEL"))

	cfg.Auth.Mode = strings.ToLower(v.GetString("AUTH_MODE"))
	cfg.Auth.APIKey = v.GetString("API_KEY")
	cfg.Auth.APIKeyHash = v.GetString("API_KEY_HASH")
	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Auth.JWTRole = v.GetString("JWT_ROLE")
	cfg.Auth.JWTTTL = time.Duration(v.GetInt("JWT_EXP_MIN")) * time.Minute

	cfg.Store.Driver = strings.ToLower(v.GetString("STORE_DRIVER"))
	cfg.Store.DataFile = v.GetString("DATA_FILE")
	cfg.Store.MongoURI = v.GetString("MONGO_URI")
	cfg.Store.MongoDB = v.GetString("MONGO_DB")
	cfg.Store.MongoCollection = v.GetString("MONGO_COLLECTION")
	cfg.Store.SQLitePath = v.GetString("SQLITE_PATH")

	cfg.Redis.URL = v.GetString("REDIS_URL")
	cfg.Redis.Channel = v.GetString("REDIS_CHANNEL")

	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case "apikey":
		if c.Auth.APIKey == "" && c.Auth.APIKeyHash == "" {
			return fmt.Errorf("config: API_KEY or API_KEY_HASH must be set")
		}
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("config: JWT_SECRET must be set when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_MODE %q", c.Auth.Mode)
	}

	switch c.Store.Driver {
	case "file", "sqlite":
	case "mongo":
		if c.Store.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI must be set when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}
