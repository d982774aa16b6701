package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config 应用配置
type Config struct {
	Environment string         `yaml:"environment"`
	RDS         RDSConfig      `yaml:"rds"`
	OSS         OSSConfig      `yaml:"oss"`
	Audit       AuditConfig    `yaml:"audit"`
	Uploader    UploaderConfig `yaml:"uploader"`
	Logging     LogConfig      `yaml:"logging"`
}

// AliyunConfig 阿里云基础配置
type AliyunConfig struct {
	AccessKeyId     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Region          string `yaml:"region"`
}

// RDSConfig RDS白名单服务配置
type RDSConfig struct {
	AliyunConfig    `yaml:",inline"` // 内嵌阿里云配置
	ResourceGroupId string           `yaml:"resource_group_id"` // 默认资源组，可被--rg覆盖
}

// OSSConfig 日志上传目标存储配置
type OSSConfig struct {
	AliyunConfig `yaml:",inline"` // 内嵌阿里云配置
	Bucket       string           `yaml:"bucket"`
	Prefix       string           `yaml:"prefix"` // 对象名前缀，如 whitelist-logs/
}

// AuditConfig 审计日志配置
type AuditConfig struct {
	Dir         string `yaml:"dir"`          // 本地日志目录
	BoundaryDay int    `yaml:"boundary_day"` // 账期分界日，默认20
}

// UploaderConfig 定时上传配置
type UploaderConfig struct {
	Cron         string   `yaml:"cron"`         // cron表达式，优先级高于Interval
	Interval     string   `yaml:"interval"`     // 执行间隔，如 "24h"（当cron为空时使用）
	RunOnStart   bool     `yaml:"run_on_start"` // 启动时是否立即执行
	Environments []string `yaml:"environments"` // 需要上传日志的环境列表
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// LoadConfig 从文件加载配置
func LoadConfig(filePath string) (*Config, error) {
	// 如果没有指定文件路径，使用默认路径
	if filePath == "" {
		filePath = "configs/config.yaml"
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	setDefaults(&config)

	// 验证配置
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(config *Config) {
	if config.Environment == "" {
		config.Environment = "dev"
	}
	if config.RDS.Region == "" {
		config.RDS.Region = "ap-southeast-1" // 新加坡区域
	}
	if config.OSS.Region == "" {
		config.OSS.Region = config.RDS.Region
	}
	if config.Audit.Dir == "" {
		config.Audit.Dir = "logs"
	}
	if config.Audit.BoundaryDay == 0 {
		config.Audit.BoundaryDay = 20
	}
	if config.Uploader.Interval == "" {
		config.Uploader.Interval = "24h"
	}
	if len(config.Uploader.Environments) == 0 {
		config.Uploader.Environments = []string{config.Environment}
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	// 不强制要求AK/SK，支持更安全的凭证管理方式：
	// 环境变量、凭证配置文件或实例RAM角色
	switch config.Environment {
	case "dev", "qa", "prod":
	default:
		return fmt.Errorf("不支持的环境: %s (可选: dev, qa, prod)", config.Environment)
	}

	if config.Audit.BoundaryDay < 1 || config.Audit.BoundaryDay > 28 {
		return fmt.Errorf("账期分界日必须在1-28之间: %d", config.Audit.BoundaryDay)
	}

	return nil
}

// GetEnvOrDefault 获取环境变量值，如果不存在则返回默认值
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
