package configs

import "github.com/spf13/viper"

const (
	// 上传边界限流默认值，默认关闭.
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 20.0
	DefaultRateLimitBurst   = 40
	DefaultRateLimitKey     = "ip"
)

// RateLimitConfig 上传边界的请求限流配置.
// 批量上传伴随落盘与哈希计算，限流挡在解析流水线之前.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`   // 每秒允许的请求数
	Burst   int     `mapstructure:"burst"` // 突发容量
	// Key 限流维度：global（全局）、ip（按客户端IP）、header:Header-Name（按请求头）
	Key string `mapstructure:"key"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
}
