package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"lms_backoffice/internal/config"
	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"
	"lms_backoffice/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LessonContentService struct {
	ContentRepo *repository.LessonContentRepository
	Storage     *StorageService
	Cfg         *config.Config
	DB          *gorm.DB
}

func NewLessonContentService(contentRepo *repository.LessonContentRepository, storage *StorageService, cfg *config.Config, db *gorm.DB) *LessonContentService {
	return &LessonContentService{ContentRepo: contentRepo, Storage: storage, Cfg: cfg, DB: db}
}

type LessonContentRequest struct {
	Title       string `json:"title" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Body        string `json:"body"`
	FileURL     string `json:"fileUrl"`
	Status      string `json:"status"`
}

func validateContentRequest(req LessonContentRequest) error {
	switch req.ContentType {
	case model.LessonContentText:
		if strings.TrimSpace(req.Body) == "" {
			return util.NewValidationError("body", "text content requires a body")
		}
	case model.LessonContentVideo, model.LessonContentFile:
		if req.FileURL == "" {
			return util.NewValidationError("fileUrl", "requires an uploaded file")
		}
	default:
		return util.NewValidationError("contentType", "must be text, video or file")
	}
	if !validStatus(req.Status) {
		return util.NewValidationError("status", "must be draft, published or archived")
	}
	return nil
}

func (s *LessonContentService) CreateContent(actor *model.AuthContext, req LessonContentRequest) (*model.LessonContent, error) {
	if !actor.Can("lesson_content:create") {
		return nil, util.ErrPermissionDenied
	}
	if err := validateContentRequest(req); err != nil {
		return nil, err
	}

	content := &model.LessonContent{
		Title:       req.Title,
		ContentType: req.ContentType,
		Body:        req.Body,
		FileURL:     req.FileURL,
		CreatorID:   actor.UserID,
	}
	if req.Status != "" {
		content.Status = req.Status
	}
	if content.ContentType == model.LessonContentVideo {
		content.CoverURL = s.generateCover(req.FileURL)
		content.Duration = s.probeDuration(req.FileURL)
	}
	if err := s.ContentRepo.Create(content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *LessonContentService) UpdateContent(actor *model.AuthContext, id uint, req LessonContentRequest) (*model.LessonContent, error) {
	if !actor.Can("lesson_content:update") {
		return nil, util.ErrPermissionDenied
	}
	if err := validateContentRequest(req); err != nil {
		return nil, err
	}

	content, err := s.ContentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}

	fileChanged := content.FileURL != req.FileURL
	content.Title = req.Title
	content.ContentType = req.ContentType
	content.Body = req.Body
	content.FileURL = req.FileURL
	if req.Status != "" {
		content.Status = req.Status
	}
	switch content.ContentType {
	case model.LessonContentText:
		content.FileURL = ""
		content.CoverURL = ""
		content.Duration = 0
	case model.LessonContentVideo:
		content.Body = ""
		if fileChanged {
			content.CoverURL = s.generateCover(req.FileURL)
			content.Duration = s.probeDuration(req.FileURL)
		}
	case model.LessonContentFile:
		content.Body = ""
		content.CoverURL = ""
		content.Duration = 0
	}

	if err := s.ContentRepo.Update(content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *LessonContentService) DeleteContent(actor *model.AuthContext, id uint) error {
	if !actor.Can("lesson_content:delete") {
		return util.ErrPermissionDenied
	}
	content, err := s.ContentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	// 被 lesson 模块引用的课件不许删，避免模块悬空
	var refs int64
	if err := s.DB.Model(&model.ModuleContent{}).Where("lesson_content_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return util.NewValidationError("id", "content is referenced by lesson modules")
	}
	return s.ContentRepo.Delete(content.ID)
}

func (s *LessonContentService) GetContent(actor *model.AuthContext, id uint) (*model.LessonContent, error) {
	if !actor.Can("lesson_content:read:all") && !actor.Can("course:read") {
		return nil, util.ErrPermissionDenied
	}
	content, err := s.ContentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return content, nil
}

func (s *LessonContentService) ListContents(actor *model.AuthContext, page, limit int) ([]model.LessonContent, int64, error) {
	if !actor.Can("lesson_content:read:all") {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.ContentRepo.List(page, limit)
}

// UploadAsset 上传课件附件，返回最终可访问的 URL。
// 图片和视频以外的类型按普通文件处理
func (s *LessonContentService) UploadAsset(ctx context.Context, actor *model.AuthContext, fileHeader *multipart.FileHeader) (string, string, error) {
	if !actor.Can("lesson_content:create") && !actor.Can("lesson_content:update") {
		return "", "", util.ErrPermissionDenied
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage, util.MimeVideo, util.MimePDF, util.MimeText})
	if err != nil {
		return "", "", util.NewValidationError("file", err.Error())
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", "", err
	}

	// 按类型分目录存放
	dir := "files"
	switch {
	case util.IsImage(mimeType):
		dir = "images"
	case util.IsVideo(mimeType):
		dir = "videos"
	}
	ext := filepath.Ext(fileHeader.Filename)
	filename := fmt.Sprintf("%s/%s%s", dir, uuid.New().String(), ext)
	url, err := s.Storage.Upload(ctx, filename, file, fileHeader.Size, mimeType)
	if err != nil {
		return "", "", err
	}
	return url, mimeType, nil
}

// generateCover 视频课件抓第 1 秒的帧做封面，失败只记日志不阻塞保存
func (s *LessonContentService) generateCover(fileURL string) string {
	localPath := s.localPathFor(fileURL)
	if localPath == "" {
		return ""
	}
	coverName := strings.TrimSuffix(filepath.Base(localPath), filepath.Ext(localPath)) + "_cover.jpg"
	coverPath := filepath.Join(filepath.Dir(localPath), coverName)
	if err := util.GenerateVideoCover(localPath, coverPath, "00:00:01"); err != nil {
		logger.Log.Warn("generate video cover failed",
			zap.String("video", fileURL), zap.Error(err))
		return ""
	}
	rel, err := filepath.Rel(s.Cfg.Storage.LocalPath, coverPath)
	if err != nil {
		return ""
	}
	return s.Storage.GetURL(rel)
}

// probeDuration 读取视频时长，探测失败记 0 不阻塞保存
func (s *LessonContentService) probeDuration(fileURL string) float64 {
	localPath := s.localPathFor(fileURL)
	if localPath == "" {
		return 0
	}
	info, err := util.ProbeVideo(localPath)
	if err != nil {
		logger.Log.Warn("probe video duration failed",
			zap.String("video", fileURL), zap.Error(err))
		return 0
	}
	return info.Duration
}

// localPathFor 只有本地存储能就地抓帧，对象存储的视频跳过封面生成
func (s *LessonContentService) localPathFor(fileURL string) string {
	const prefix = "/uploads/"
	if !strings.HasPrefix(fileURL, prefix) {
		return ""
	}
	path := filepath.Join(s.Cfg.Storage.LocalPath, strings.TrimPrefix(fileURL, prefix))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
