package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/bidvault/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件生命周期相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup) {
	filesRoutes := g.Group("/files")
	{
		// 批量上传，表单字段 files / duplicate_action / image_only
		filesRoutes.POST("", handle.UploadFiles)
		// 列表与过滤
		filesRoutes.GET("", handle.ListFiles)

		singleGroup := filesRoutes.Group("/:id")
		{
			// 详情：记录 + 元数据 + 章节/图片/财报切分
			singleGroup.GET("", handle.GetFileDetail)
			// 轻量状态轮询
			singleGroup.GET("/status", handle.GetFileStatus)
			// 删除记录与衍生产物
			singleGroup.DELETE("", handle.DeleteFile)
		}
	}
}
