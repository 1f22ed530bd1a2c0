package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	ConfigPathEnv     = "WINE_CONFIG"

	DefaultPort        = 5000
	DefaultUploadDir   = "/tmp"
	DefaultModelPath   = "/app/trainingweights"
	DefaultF1Average   = "weighted"
	DefaultMaxUploadMB = 64

	DefaultQualityThreshold = 7.0
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Model      ModelConfig      `yaml:"model"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type ModelConfig struct {
	Path   string            `yaml:"path"`
	Remote RemoteModelConfig `yaml:"remote"`
}

// RemoteModelConfig describes an SSH server the model artifact is pulled
// from before loading.
type RemoteModelConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Dir            string `yaml:"dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type EvaluationConfig struct {
	// weighted | macro | binary
	F1Average string `yaml:"f1_average"`

	// quality > QualityThreshold 记为正类；不配置时取 7，允许显式配置为 0
	QualityThreshold *float64 `yaml:"quality_threshold"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"` // mysql | postgres | sqlite, empty disables history
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Path     string `yaml:"path"` // sqlite file
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ArchiveConfig struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
}

var AppConfig *Config

// InitConfig loads the YAML file named by WINE_CONFIG, falling back to
// config/config.yaml, and stores it in AppConfig.
func InitConfig() error {
	path := strings.TrimSpace(os.Getenv(ConfigPathEnv))
	if path == "" {
		path = DefaultConfigPath
	}
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %v", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %v", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values with the service defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if strings.TrimSpace(c.Server.UploadDir) == "" {
		c.Server.UploadDir = DefaultUploadDir
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = DefaultMaxUploadMB
	}
	if strings.TrimSpace(c.Model.Path) == "" {
		c.Model.Path = DefaultModelPath
	}
	if c.Model.Remote.Port == 0 {
		c.Model.Remote.Port = 22
	}
	if strings.TrimSpace(c.Evaluation.F1Average) == "" {
		c.Evaluation.F1Average = DefaultF1Average
	}
	if c.Evaluation.QualityThreshold == nil {
		threshold := DefaultQualityThreshold
		c.Evaluation.QualityThreshold = &threshold
	}
}
