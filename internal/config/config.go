package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Restriction RestrictionConfig `mapstructure:"restriction"`
}

// admin API server configuration
type ServerConfig struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	CertFile       string   `mapstructure:"cert_file"`
	KeyFile        string   `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	Charset     string `mapstructure:"charset"`
	File        string `mapstructure:"file"`
	TablePrefix string `mapstructure:"table_prefix"`
}

// restriction engine settings
type RestrictionConfig struct {
	DefaultBanSeconds int64             `mapstructure:"default_ban_seconds"`
	StockReasons      []StockReason     `mapstructure:"stock_reasons"`
	StockDurations    []int64           `mapstructure:"stock_durations"`
	DenialMessages    map[string]string `mapstructure:"denial_messages"`
}

// StockReason is a preset review reason with its suggested duration
type StockReason struct {
	ID       string `mapstructure:"id"`
	Text     string `mapstructure:"text"`
	Duration int64  `mapstructure:"duration"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.cert_file", "")
	v.SetDefault("server.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file", "srcds-admin.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.table_prefix", "sp_admin_")

	v.SetDefault("restriction.default_ban_seconds", 604800)
	v.SetDefault("restriction.stock_durations", []int64{
		600, 3600, 86400, 604800, 2592000, -1,
	})
	v.SetDefault("restriction.denial_messages", map[string]string{
		"default_ban_reason":   "You are banned from this server.",
		"default_chat_reason":  "You are blocked from using text chat.",
		"default_voice_reason": "You are blocked from using voice chat.",
	})
}
