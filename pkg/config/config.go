package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/utils"
)

// Config 应用程序配置
type Config struct {
	Log       LogConfig       `json:"log"`
	Handle    HandleConfig    `json:"handle"`
	Aggregate AggregateConfig `json:"aggregate"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or text
}

// HandleConfig 执行句柄配置，提供者通过该句柄回调数据库
type HandleConfig struct {
	Driver  string `json:"driver"` // sqlite, mysql or postgres
	DSN     string `json:"dsn"`
	MaxOpen int    `json:"max_open"`
}

// AggregateConfig 分组聚合配置
type AggregateConfig struct {
	// Collation 分组键中字符串的排序规则
	Collation string `json:"collation"`
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"json": true, "text": true}
	validDrivers = map[string]bool{"sqlite": true, "mysql": true, "postgres": true}
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Handle: HandleConfig{
			Driver:  "sqlite",
			DSN:     ":memory:",
			MaxOpen: 1,
		},
		Aggregate: AggregateConfig{
			Collation: "utf8mb4_bin",
		},
	}
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果没有指定配置文件，使用默认配置
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "读取配置文件失败: %s", configPath)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "解析配置文件失败: %s", configPath)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault 尝试从常见位置加载配置文件
func LoadConfigOrDefault() *Config {
	possiblePaths := []string{
		"config.json",
		"./config/config.json",
		"/etc/aggexec/config.json",
	}

	if envPath := os.Getenv("AGGEXEC_CONFIG"); envPath != "" {
		if config, err := LoadConfig(envPath); err == nil {
			return config
		}
	}

	for _, path := range possiblePaths {
		if absPath, err := filepath.Abs(path); err == nil {
			if config, err := LoadConfig(absPath); err == nil {
				return config
			}
		}
	}

	return DefaultConfig()
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if !validLevels[strings.ToLower(config.Log.Level)] {
		return domain.NewErrInvalidConfig("log.level", "无效的日志级别: "+config.Log.Level)
	}

	if !validFormats[strings.ToLower(config.Log.Format)] {
		return domain.NewErrInvalidConfig("log.format", "日志格式必须是 json 或 text")
	}

	if !validDrivers[config.Handle.Driver] {
		return domain.NewErrInvalidConfig("handle.driver", "不支持的驱动: "+config.Handle.Driver)
	}

	if config.Handle.DSN == "" {
		return domain.NewErrInvalidConfig("handle.dsn", "DSN不能为空")
	}

	if config.Handle.MaxOpen < 1 {
		return domain.NewErrInvalidConfig("handle.max_open", "最大连接数必须大于0")
	}

	if !utils.GetGlobalCollationEngine().IsKnown(config.Aggregate.Collation) {
		return domain.NewErrInvalidConfig("aggregate.collation", "未知的排序规则: "+config.Aggregate.Collation)
	}

	return nil
}
