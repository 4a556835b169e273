package configs

import (
	"time"

	"github.com/spf13/viper"
)

// OCRConfig 外部 OCR 服务配置.
// OCR 不可用时逐页降级，不会导致解析阶段失败.
type OCRConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" rule:"omitempty,url"`
	Timeout  int    `mapstructure:"timeout"  rule:"min=1"` // 单页识别超时（秒）
	Language string `mapstructure:"language"`              // 识别语言，默认中文简体
}

// GetTimeoutDuration 返回单页 OCR 超时.
func (c *OCRConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// setDefaults 设置 OCR 配置的默认值.
func (c *OCRConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("ocr.enabled", false)
	v.SetDefault("ocr.endpoint", "http://localhost:8868/ocr")
	v.SetDefault("ocr.timeout", 30)
	v.SetDefault("ocr.language", "ch")
}
