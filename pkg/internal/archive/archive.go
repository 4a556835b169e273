package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/bidvault/pkg/internal/storage/s3"
	"github.com/yeisme/bidvault/pkg/log"
)

// Archiver 将解析完成的文件移入归档目录树，可选镜像到对象存储.
type Archiver struct {
	root   string
	mirror *s3.Client // nil 表示不镜像
	bucket string
}

// NewArchiver 创建归档器，mirror 传 nil 关闭对象存储镜像.
func NewArchiver(root string, mirror *s3.Client, bucket string) *Archiver {
	return &Archiver{root: root, mirror: mirror, bucket: bucket}
}

// Result 一次归档的落点.
type Result struct {
	Path       string // 本地归档路径
	ObjectKey  string // 镜像对象键，未镜像时为空
	ArchivedAt time.Time
}

// Archive 将 srcPath 移动到 <root>/<年>/<月>/<类别>/<语义文件名>，
// 同名冲突时追加序号；镜像失败只记日志，不影响本地归档.
func (a *Archiver) Archive(ctx context.Context, srcPath, semanticName, category string, now time.Time) (*Result, error) {
	dir := filepath.Join(a.root, now.Format("2006"), now.Format("01"), category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	dst := uniquePath(filepath.Join(dir, semanticName))

	if err := moveFile(srcPath, dst); err != nil {
		return nil, fmt.Errorf("archive move: %w", err)
	}

	result := &Result{Path: dst, ArchivedAt: now}

	if a.mirror != nil && a.bucket != "" {
		key, err := filepath.Rel(a.root, dst)
		if err != nil {
			key = filepath.Base(dst)
		}

		key = filepath.ToSlash(key)

		_, err = a.mirror.FPutObject(ctx, a.bucket, key, dst, minio.PutObjectOptions{
			ContentType: contentTypeOf(dst),
		})
		if err != nil {
			log.Logger().Warn().Err(err).Str("key", key).Msg("mirror to object storage failed")
		} else {
			result.ObjectKey = key
		}
	}

	return result, nil
}

// uniquePath 在同名冲突时追加 _1、_2 序号.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// moveFile 优先 rename，跨文件系统时退回复制加删除.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)

		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}

func contentTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
