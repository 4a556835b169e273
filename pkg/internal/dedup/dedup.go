// Package dedup 基于全文 SHA-256 的重复文件判定与版本链维护.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/yeisme/bidvault/pkg/internal/model"
)

// HashStream 读完整个流并返回 SHA-256 十六进制摘要与字节数.
func HashStream(r io.Reader) (string, int64, error) {
	h := sha256.New()

	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("hash stream: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashFile 计算文件的 SHA-256.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	return HashStream(f)
}

// Verdict 上传去重判定结果.
type Verdict string

const (
	// VerdictNew 库中无同哈希文件，按新文件入库.
	VerdictNew Verdict = "new"
	// VerdictSkipped 命中重复且策略为 skip，不入库.
	VerdictSkipped Verdict = "skipped_duplicate"
	// VerdictOverwritten 命中重复且策略为 overwrite，旧记录及衍生产物行已随事务删除.
	VerdictOverwritten Verdict = "overwritten"
	// VerdictNewVersion 命中重复且策略为 update，新文件接入版本链.
	VerdictNewVersion Verdict = "new_version"
)

// Resolution 去重判定与新记录应携带的版本信息.
type Resolution struct {
	Verdict  Verdict
	Existing *model.UploadedFile // 命中的最新一版，Verdict 为 new 时为 nil
	// 新记录的版本链字段，Verdict 为 skipped_duplicate 时无意义
	OriginalFileID *string
	Version        int
	// overwrite 时待物理删除的旧产物路径，由调用方在事务提交后清理
	OrphanPaths []string
}

// Resolve 按哈希查重并根据策略给出判定.
// overwrite 分支级联删除旧记录与衍生产物行；调用方应把 Resolve 与
// 替换记录的写入放进同一事务，回滚时旧版本原样保留.
func Resolve(db *gorm.DB, sha string, action model.DuplicateAction) (*Resolution, error) {
	var existing model.UploadedFile

	err := db.Where("sha256 = ?", sha).
		Order("version DESC, created_at DESC").
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Resolution{Verdict: VerdictNew, Version: 1}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("lookup sha256: %w", err)
	}

	switch action {
	case model.DuplicateSkip:
		return &Resolution{Verdict: VerdictSkipped, Existing: &existing}, nil

	case model.DuplicateOverwrite:
		var orphans []string

		err := db.Transaction(func(tx *gorm.DB) error {
			paths, err := DeleteCascade(tx, existing.ID)
			if err != nil {
				return err
			}

			orphans = paths

			return nil
		})
		if err != nil {
			return nil, err
		}

		return &Resolution{
			Verdict:     VerdictOverwritten,
			Existing:    &existing,
			Version:     1,
			OrphanPaths: orphans,
		}, nil

	case model.DuplicateUpdate:
		root := existing.ID
		if existing.OriginalFileID != nil {
			root = *existing.OriginalFileID
		}

		return &Resolution{
			Verdict:        VerdictNewVersion,
			Existing:       &existing,
			OriginalFileID: &root,
			Version:        existing.Version + 1,
		}, nil

	default:
		return nil, fmt.Errorf("invalid duplicate action: %s", action)
	}
}

// DeleteCascade 删除文件记录及全部衍生产物行，返回待物理清理的路径.
// 必须在事务内调用.
func DeleteCascade(tx *gorm.DB, fileID string) ([]string, error) {
	var paths []string

	var file model.UploadedFile
	if err := tx.First(&file, "id = ?", fileID).Error; err != nil {
		return nil, fmt.Errorf("load file %s: %w", fileID, err)
	}

	for _, p := range []string{file.TempPath, file.ArchivePath} {
		if p != "" {
			paths = append(paths, p)
		}
	}

	var images []model.ExtractedImage
	if err := tx.Where("file_id = ?", fileID).Find(&images).Error; err != nil {
		return nil, err
	}

	for _, img := range images {
		paths = append(paths, img.ImagePath)
	}

	var segments []model.FinancialReportSegment
	if err := tx.Where("file_id = ?", fileID).Find(&segments).Error; err != nil {
		return nil, err
	}

	for _, seg := range segments {
		paths = append(paths, seg.ArchivePath)
	}

	for _, m := range []any{
		&model.Chapter{},
		&model.ExtractedImage{},
		&model.FinancialReportSegment{},
	} {
		if err := tx.Where("file_id = ?", fileID).Delete(m).Error; err != nil {
			return nil, fmt.Errorf("cascade delete: %w", err)
		}
	}

	if err := tx.Delete(&model.UploadedFile{}, "id = ?", fileID).Error; err != nil {
		return nil, fmt.Errorf("delete file row: %w", err)
	}

	return paths, nil
}
