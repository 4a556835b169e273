// Package router 管理路由配置，将路径绑定到 pkg/internal/handle 的处理器.
package router

import (
	"github.com/gin-gonic/gin"
)

// Register 绑定全部业务路由到 /api/v1.
func Register(r *gin.Engine) {
	api := r.Group("/api/v1")

	RegisterFilesRoutes(api)
	RegisterHealthCheckRoute(api)
	RegisterSchedulerRoutes(api)
}
