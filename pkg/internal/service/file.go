// Package service 实现文件生命周期的业务逻辑，处理器只做参数绑定与响应.
package service

import (
	"context"

	ctxPkg "github.com/yeisme/bidvault/pkg/context"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/internal/storage/db"
	"github.com/yeisme/bidvault/pkg/internal/storage/mq"
	"github.com/yeisme/bidvault/pkg/internal/types"
)

// FileService 文件记录与上传边界的业务逻辑.
type FileService struct {
	dbClient *db.Client
	mqClient *mq.Client
}

// NewFileService 从 context 取存储客户端构建服务实例.
func NewFileService(c context.Context) *FileService {
	return &FileService{
		dbClient: ctxPkg.GetDBClient(c),
		mqClient: ctxPkg.GetMQClient(c),
	}
}

// toFileInfo 将持久化记录映射为对外视图.
func toFileInfo(f *model.UploadedFile) types.FileInfo {
	return types.FileInfo{
		ID:               f.ID,
		Filename:         f.Filename,
		Filetype:         f.Filetype,
		FileSize:         f.FileSize,
		SHA256:           f.SHA256,
		Status:           string(f.Status),
		Uploader:         f.Uploader,
		Version:          f.Version,
		OriginalFileID:   f.OriginalFileID,
		Category:         f.Category,
		SemanticFilename: f.SemanticFilename,
		ArchivePath:      f.ArchivePath,
		ErrorLog:         f.ErrorLog,
		CreatedAt:        f.CreatedAt,
		StatusUpdatedAt:  f.StatusUpdatedAt,
		ParsedAt:         f.ParsedAt,
		ArchivedAt:       f.ArchivedAt,
		IndexedAt:        f.IndexedAt,
	}
}
