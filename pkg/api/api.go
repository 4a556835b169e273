// Package api 定义对外 HTTP 接口的注册入口.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/bidvault/pkg/internal/router"
)

// RegisterRoutes 注册全部业务路由到传入的 gin 引擎.
func RegisterRoutes(e *gin.Engine) *gin.Engine {
	router.Register(e)

	return e
}
