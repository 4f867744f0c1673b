package dto

// UploadDocumentRequest carries metadata alongside the multipart file.
type UploadDocumentRequest struct {
	Name     string `form:"name"`
	Category string `form:"category"`
}

// DocumentQuery carries list parameters from the HTTP layer.
type DocumentQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
