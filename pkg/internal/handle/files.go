package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/internal/service"
	"github.com/yeisme/bidvault/pkg/internal/types"
	"github.com/yeisme/bidvault/pkg/log"
)

// UploadFiles 处理批量文件上传.
//
//	@Summary		批量上传文档
//	@Description	multipart 表单上传，逐文件校验、SHA-256 去重并异步进入解析流水线
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files				formData	[]file						true	"上传的文件数组"
//	@Param			duplicate_action	formData	string						false	"重复处理策略：skip/overwrite/update，默认 skip"
//	@Param			image_only			formData	bool						false	"仅图片模式，放行图片后缀"
//	@Success		200					{object}	types.UploadFilesResponse	"逐文件上传裁决"
//	@Failure		400					{object}	map[string]string			"请求参数错误"
//	@Router			/api/v1/files [post]
func UploadFiles(c *gin.Context) {
	l := log.Logger()

	form, err := c.MultipartForm()
	if err != nil {
		l.Warn().Err(err).Msg("failed to parse multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})

		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		l.Warn().Msg("no files provided in upload request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})

		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	action := model.DuplicateAction(c.DefaultPostForm("duplicate_action", string(model.DuplicateSkip)))
	if !action.Valid() {
		l.Warn().Str("duplicate_action", string(action)).Msg("invalid duplicate action")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duplicate_action: " + string(action)})

		return
	}

	imageOnly := c.PostForm("image_only") == "true"

	l.Debug().
		Int("file_count", len(files)).
		Str("user", user).
		Str("duplicate_action", string(action)).
		Msg("processing batch upload request")

	svc := service.NewFileService(c.Request.Context())
	resp := svc.Upload(c.Request.Context(), user, action, imageOnly, files)

	c.JSON(http.StatusOK, resp)
}

// ListFiles 文件列表查询.
//
//	@Summary		文件列表
//	@Description	按状态、分类、上传者、文件名关键字过滤并分页
//	@Tags			文件
//	@Produce		json
//	@Param			status		query		string					false	"生命周期状态"
//	@Param			category	query		string					false	"业务分类"
//	@Param			uploader	query		string					false	"上传者"
//	@Param			keyword		query		string					false	"文件名模糊匹配"
//	@Param			page		query		int						false	"页码，默认 1"
//	@Param			page_size	query		int						false	"页大小，默认 20，上限 200"
//	@Success		200			{object}	types.ListFilesResponse	"分页文件列表"
//	@Failure		400			{object}	map[string]string		"请求参数错误"
//	@Router			/api/v1/files [get]
func ListFiles(c *gin.Context) {
	l := log.Logger()

	var req types.ListFilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid list request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.List(c.Request.Context(), &req)
	if err != nil {
		l.Error().Err(err).Msg("failed to list files")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetFileStatus 轻量状态查询，供上传方轮询.
//
//	@Summary		查询文件状态
//	@Tags			文件
//	@Produce		json
//	@Param			id	path		string						true	"文件 ID"
//	@Success		200	{object}	types.FileStatusResponse	"状态响应"
//	@Failure		404	{object}	map[string]string			"文件不存在"
//	@Router			/api/v1/files/{id}/status [get]
func GetFileStatus(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondFileError(c, err, "failed to get file status")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetFileDetail 文件详情：记录、元数据与全部衍生产物.
//
//	@Summary		查询文件详情
//	@Tags			文件
//	@Produce		json
//	@Param			id	path		string						true	"文件 ID"
//	@Success		200	{object}	types.FileDetailResponse	"详情响应"
//	@Failure		404	{object}	map[string]string			"文件不存在"
//	@Router			/api/v1/files/{id} [get]
func GetFileDetail(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondFileError(c, err, "failed to get file detail")

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteFile 删除文件记录与衍生产物.
//
//	@Summary		删除文件
//	@Tags			文件
//	@Produce		json
//	@Param			id	path		string				true	"文件 ID"
//	@Success		200	{object}	map[string]string	"删除成功"
//	@Failure		404	{object}	map[string]string	"文件不存在"
//	@Router			/api/v1/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	svc := service.NewFileService(c.Request.Context())

	if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondFileError(c, err, "failed to delete file")

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// respondFileError 按错误类型映射 404/500.
func respondFileError(c *gin.Context, err error, msg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})

		return
	}

	log.Logger().Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
