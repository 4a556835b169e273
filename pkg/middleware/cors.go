package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/bidvault/pkg/configs"
)

// CORSMiddleware 按服务配置构造 CORS 中间件，调试模式放开全部来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowFiles = true

	if cfg.Debug {
		config.AllowAllOrigins = true

		return cors.New(config)
	}

	config.AllowOrigins = cfg.AllowOrigins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"*"}
	}

	return cors.New(config)
}
