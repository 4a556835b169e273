// Package configs 管理应用程序配置，包括数据库、文档存储、解析流水线和队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	import "path/to/configs"
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing DB config:
//
//	config := configs.GetConfig()
//	dbConfig := config.DB
//	dsn := dbConfig.GetDSN()
//	fmt.Println("DSN:", dsn)
//
// Example accessing storage config:
//
//	config := configs.GetConfig()
//	storageConfig := config.Storage
//	fmt.Println("Upload dir:", storageConfig.UploadDir)
//
// Example accessing pipeline config:
//
//	config := configs.GetConfig()
//	pipelineConfig := config.Pipeline
//	fmt.Println("Workers:", pipelineConfig.MaxConcurrentTasks)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/bidvault/pkg/rule"
)

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		DB             DBConfig             `mapstructure:"db"`              // 数据库配置
		Storage        StorageConfig        `mapstructure:"storage"`        // 文档存储目录与上传限制
		S3             S3Config             `mapstructure:"s3"`              // 可选的对象存储归档镜像
		MQ             MQConfig             `mapstructure:"mq"`              // 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // KV 缓存后端配置
		OCR            OCRConfig            `mapstructure:"ocr"`             // 外部 OCR 服务配置
		Embedding      EmbeddingConfig      `mapstructure:"embedding"`       // 外部向量服务配置
		Pipeline       PipelineConfig       `mapstructure:"pipeline"`        // 解析流水线配置
		Server         ServerConfig         `mapstructure:"server"`          // 服务器配置
		Log            LogConfig            `mapstructure:"log"`             // 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // 监控指标配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 分布式追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // 上传接口限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 外部服务熔断配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 配置文件缺失时回退到默认值，环境变量仍然生效.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(path + "/configs")

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.AutomaticEnv()
	appViper.SetEnvPrefix("BIDVAULT")

	// 读取配置
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 按结构体 rule 标签校验配置值
	if err := rule.ValidateStruct(&globalConfig); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var serverConfig ServerConfig

	var dbConfig DBConfig

	var storageConfig StorageConfig

	var s3Config S3Config

	var mqConfig MQConfig

	var kvConfig KVConfig

	var ocrConfig OCRConfig

	var embeddingConfig EmbeddingConfig

	var pipelineConfig PipelineConfig

	var logConfig LogConfig

	var metricsConfig MetricsConfig

	var tracingConfig TracingConfig

	var rateLimitConfig RateLimitConfig

	var cbConfig CircuitBreakerConfig

	serverConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	storageConfig.setDefaults(v)
	s3Config.setDefaults(v)
	mqConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	ocrConfig.setDefaults(v)
	embeddingConfig.setDefaults(v)
	pipelineConfig.setDefaults(v)
	logConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	cbConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

func GetViper() *viper.Viper {
	return appViper
}
