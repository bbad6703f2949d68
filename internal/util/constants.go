package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 课件上传允许的 MIME 前缀/类型
const (
	MimeVideo = "video/"
	MimeImage = "image/"
	MimeText  = "text/"
	MimePDF   = "application/pdf"
)
