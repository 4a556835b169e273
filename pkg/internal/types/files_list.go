package types

// ListFilesRequest 文件列表过滤与分页参数.
type ListFilesRequest struct {
	Status   string `form:"status"`
	Category string `form:"category"`
	Uploader string `form:"uploader"`
	Keyword  string `form:"keyword"` // 文件名模糊匹配
	Page     int    `form:"page,default=1"       rule:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" rule:"omitempty,min=1,max=200"`
}

// ListFilesResponse 文件列表响应.
type ListFilesResponse struct {
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Files    []FileInfo `json:"files"`
}
