package types

// UploadVerdict 单个文件的上传裁决.
type UploadVerdict struct {
	Filename string `json:"filename"`
	// 去重判定：new/skipped_duplicate/overwritten/new_version
	Verdict string `json:"verdict,omitempty"`
	FileID  string `json:"file_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Version int    `json:"version,omitempty"`
	SHA256  string `json:"sha256,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// UploadFilesResponse 批量上传响应：整体不失败，逐文件给出裁决.
type UploadFilesResponse struct {
	Results []UploadVerdict `json:"results"`
}
