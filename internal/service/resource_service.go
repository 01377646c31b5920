package service

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/logger"
	"campus_share_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const trendingCacheTTL = time.Minute

// ResourceService owns the upload/dedup/link/download/delete pipeline.
type ResourceService struct {
	ResourceRepo *repository.ResourceRepository
	CatalogRepo  *repository.CatalogRepository
	UserRepo     *repository.UserRepository
	Storage      *StorageService
	Cfg          *config.Config
	Redis        *redis.Client
}

func NewResourceService(resourceRepo *repository.ResourceRepository, catalogRepo *repository.CatalogRepository, userRepo *repository.UserRepository, storage *StorageService, cfg *config.Config, rdb *redis.Client) *ResourceService {
	return &ResourceService{
		ResourceRepo: resourceRepo,
		CatalogRepo:  catalogRepo,
		UserRepo:     userRepo,
		Storage:      storage,
		Cfg:          cfg,
		Redis:        rdb,
	}
}

// UploadInput 上传请求载荷（字节已读入内存，大小受配置上限约束）
type UploadInput struct {
	CourseUnitID uint
	Filename     string
	ContentType  string
	Title        string
	Description  string
	Type         model.ResourceType
	Content      []byte
}

// Upload validates, dedups by content digest, persists bytes, then writes the
// catalog row. Digest and validation run before any storage mutation so a
// failure cannot orphan stored bytes.
func (s *ResourceService) Upload(ctx context.Context, uploaderID uint, in UploadInput) (*model.Resource, error) {
	exists, err := s.CatalogRepo.CourseUnitExists(in.CourseUnitID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrCourseUnitNotFound
	}

	maxBytes := int64(s.Cfg.Upload.MaxSizeMB) * 1024 * 1024
	if int64(len(in.Content)) > maxBytes {
		return nil, util.ErrFileTooLarge
	}

	digest := util.ContentDigest(in.Content)

	// 全局查重：同字节内容跨课程单元也算重复，客户端可改走 link
	existing, err := s.ResourceRepo.FindByDigest(digest)
	if err == nil {
		monitoring.DuplicateUploads.Inc()
		existing.AverageRating = existing.ComputeAverageRating()
		return nil, &util.DuplicateResourceError{Existing: existing}
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	contentType := strings.ToLower(in.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	storagePath, url, err := s.Storage.SaveResource(ctx, in.CourseUnitID, digest, in.Filename, contentType, in.Content)
	if err != nil {
		return nil, err
	}

	filename := in.Filename
	if filename == "" {
		filename = digest
	}

	resourceType := in.Type
	if resourceType == "" {
		resourceType = model.Notes
	}

	resource := &model.Resource{
		CourseUnitID: in.CourseUnitID,
		UploaderID:   uploaderID,
		Title:        in.Title,
		Description:  in.Description,
		Type:         resourceType,
		Filename:     filename,
		ContentType:  contentType,
		SizeBytes:    int64(len(in.Content)),
		SHA256:       digest,
		StoragePath:  storagePath,
		URL:          url,
	}

	if err := s.ResourceRepo.Create(resource); err != nil {
		// 并发上传竞态：唯一索引把竞态变成插入冲突，按正常查重处理
		if err == gorm.ErrDuplicatedKey {
			if dup, derr := s.ResourceRepo.FindByDigest(digest); derr == nil {
				monitoring.DuplicateUploads.Inc()
				dup.AverageRating = dup.ComputeAverageRating()
				return nil, &util.DuplicateResourceError{Existing: dup}
			}
		}
		return nil, err
	}

	monitoring.UploadBytes.Add(float64(len(in.Content)))
	resource.AverageRating = resource.ComputeAverageRating()
	return resource, nil
}

// CheckDuplicate 上传前预检：只算摘要查重，不落任何数据。
// Returns the already-catalogued entry for these bytes, or nil when the
// content is new. Uses the same global digest lookup as Upload so the answer
// predicts the 409.
func (s *ResourceService) CheckDuplicate(courseUnitID uint, content []byte) (*model.Resource, error) {
	exists, err := s.CatalogRepo.CourseUnitExists(courseUnitID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrCourseUnitNotFound
	}

	existing, err := s.ResourceRepo.FindByDigest(util.ContentDigest(content))
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	existing.AverageRating = existing.ComputeAverageRating()
	return existing, nil
}

// Link creates a second catalog entry that reuses the existing entry's stored
// object under another course unit. Idempotent when the target unit already
// carries the same digest.
func (s *ResourceService) Link(userID, existingID, courseUnitID uint, title, description string) (*model.Resource, error) {
	existing, err := s.ResourceRepo.FindByID(existingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}

	unitExists, err := s.CatalogRepo.CourseUnitExists(courseUnitID)
	if err != nil {
		return nil, err
	}
	if !unitExists {
		return nil, util.ErrCourseUnitNotFound
	}

	if dup, err := s.ResourceRepo.FindByUnitAndDigest(courseUnitID, existing.SHA256); err == nil {
		dup.AverageRating = dup.ComputeAverageRating()
		return dup, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if title == "" {
		title = existing.Title
	}
	if description == "" {
		description = existing.Description
	}

	linked := &model.Resource{
		CourseUnitID: courseUnitID,
		UploaderID:   userID,
		Title:        title,
		Description:  description,
		Type:         existing.Type,
		Filename:     existing.Filename,
		ContentType:  existing.ContentType,
		SizeBytes:    existing.SizeBytes,
		SHA256:       existing.SHA256,
		StoragePath:  existing.StoragePath,
		URL:          existing.URL,
	}

	if err := s.ResourceRepo.Create(linked); err != nil {
		if err == gorm.ErrDuplicatedKey {
			if dup, derr := s.ResourceRepo.FindByUnitAndDigest(courseUnitID, existing.SHA256); derr == nil {
				dup.AverageRating = dup.ComputeAverageRating()
				return dup, nil
			}
		}
		return nil, err
	}

	linked.AverageRating = linked.ComputeAverageRating()
	return linked, nil
}

// Get returns one resource enriched with the requesting user's bookmark and
// rating state.
func (s *ResourceService) Get(userID, resourceID uint) (*model.Resource, error) {
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}

	bookmarked, err := s.ResourceRepo.IsBookmarked(userID, resourceID)
	if err != nil {
		return nil, err
	}
	resource.IsBookmarked = &bookmarked

	if rating, err := s.ResourceRepo.GetUserRating(userID, resourceID); err == nil {
		resource.UserRating = &rating.Rating
	}

	resource.AverageRating = resource.ComputeAverageRating()
	return resource, nil
}

func (s *ResourceService) List(filter repository.ResourceFilter) ([]model.Resource, int64, error) {
	resources, total, err := s.ResourceRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range resources {
		resources[i].AverageRating = resources[i].ComputeAverageRating()
	}
	return resources, total, nil
}

func (s *ResourceService) Search(term string, courseUnitID uint, limit, offset int) ([]model.Resource, int64, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, 0, util.ErrSearchQueryTooShort
	}
	resources, total, err := s.ResourceRepo.Search(term, courseUnitID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range resources {
		resources[i].AverageRating = resources[i].ComputeAverageRating()
	}
	return resources, total, nil
}

// Trending serves from a short-lived redis cache; the download counters it
// sorts by move too fast for per-write invalidation to be worth it.
func (s *ResourceService) Trending(ctx context.Context, courseUnitID uint, limit, offset int) ([]model.Resource, int64, error) {
	cacheKey := fmt.Sprintf("trending:%d:%d:%d", courseUnitID, limit, offset)

	type cached struct {
		Items []model.Resource `json:"items"`
		Total int64            `json:"total"`
	}

	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var c cached
			if json.Unmarshal([]byte(raw), &c) == nil {
				return c.Items, c.Total, nil
			}
		}
	}

	resources, total, err := s.ResourceRepo.Trending(courseUnitID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range resources {
		resources[i].AverageRating = resources[i].ComputeAverageRating()
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(cached{Items: resources, Total: total}); err == nil {
			s.Redis.Set(ctx, cacheKey, raw, trendingCacheTTL)
		}
	}

	return resources, total, nil
}

// UpdateMetadata edits title/description/type; owner only.
func (s *ResourceService) UpdateMetadata(userID, resourceID uint, title, description *string, resourceType *model.ResourceType) (*model.Resource, error) {
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}

	if resource.UploaderID != userID {
		return nil, util.ErrPermissionDenied
	}

	if title != nil {
		resource.Title = *title
	}
	if description != nil {
		resource.Description = *description
	}
	if resourceType != nil {
		resource.Type = *resourceType
	}

	if err := s.ResourceRepo.UpdateMetadata(resource); err != nil {
		return nil, err
	}
	resource.AverageRating = resource.ComputeAverageRating()
	return resource, nil
}

// MarkDownloaded is the explicit counter bump used by clients that fetch the
// bytes out of band (e.g. an already-resolved remote URL).
func (s *ResourceService) MarkDownloaded(resourceID, userID uint) (*model.Resource, error) {
	resource, err := s.ResourceRepo.RecordDownload(resourceID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}
	resource.AverageRating = resource.ComputeAverageRating()
	return resource, nil
}

// Download records the download and resolves the stored object to either a
// streamable local path or a redirect target.
func (s *ResourceService) Download(ctx context.Context, resourceID, userID uint) (*model.Resource, DownloadResolution, error) {
	resource, err := s.ResourceRepo.RecordDownload(resourceID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, DownloadResolution{}, util.ErrResourceNotFound
		}
		return nil, DownloadResolution{}, err
	}

	resolution, err := s.Storage.ResolveDownload(ctx, resource.StoragePath, resource.URL)
	if err != nil {
		return nil, DownloadResolution{}, err
	}

	if resolution.Kind == ResolutionPath {
		if _, err := os.Stat(resolution.Value); os.IsNotExist(err) {
			// 目录里有记录但文件不在了：数据漂移，记日志但不视为致命
			logger.Log.Warn("catalog row exists but backing file is missing",
				zap.Uint("resource_id", resource.ID),
				zap.String("storage_path", resource.StoragePath))
			return nil, DownloadResolution{}, util.ErrFileMissing
		}
	}

	resource.AverageRating = resource.ComputeAverageRating()
	return resource, resolution, nil
}

// Delete removes the catalog row and, when it held the last reference to the
// stored object, the object itself. Physical deletion is best-effort and
// never blocks the row delete.
func (s *ResourceService) Delete(ctx context.Context, actorID uint, isAdmin bool, resourceID uint) error {
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrResourceNotFound
		}
		return err
	}

	if resource.UploaderID != actorID && !isAdmin {
		return util.ErrPermissionDenied
	}

	refs, err := s.ResourceRepo.CountSharingStoragePath(resource.StoragePath, resource.ID)
	if err != nil {
		return err
	}
	if refs == 0 {
		s.Storage.Delete(ctx, resource.StoragePath)
	}

	return s.ResourceRepo.Delete(resource.ID)
}

// BulkDelete applies reference-counted deletion per item; a missing id lands
// in the not-found list instead of aborting the batch.
func (s *ResourceService) BulkDelete(ctx context.Context, ids []uint) (int, []uint) {
	deleted := 0
	notFound := []uint{}

	for _, id := range ids {
		resource, err := s.ResourceRepo.FindByID(id)
		if err != nil {
			notFound = append(notFound, id)
			continue
		}

		refs, err := s.ResourceRepo.CountSharingStoragePath(resource.StoragePath, resource.ID)
		if err == nil && refs == 0 {
			s.Storage.Delete(ctx, resource.StoragePath)
		}

		if err := s.ResourceRepo.Delete(resource.ID); err != nil {
			logger.Log.Error("bulk delete: row delete failed",
				zap.Uint("resource_id", id), zap.Error(err))
			continue
		}
		deleted++
	}

	return deleted, notFound
}

// Rate upserts the caller's rating and returns the resource with fresh
// aggregates.
func (s *ResourceService) Rate(resourceID, userID uint, rating int) (*model.Resource, error) {
	if rating < 1 || rating > 5 {
		return nil, util.ErrInvalidRating
	}

	resource, err := s.ResourceRepo.UpsertRating(resourceID, userID, rating)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}

	resource.AverageRating = resource.ComputeAverageRating()
	return resource, nil
}

func (s *ResourceService) AddBookmark(userID, resourceID uint) error {
	if _, err := s.ResourceRepo.FindByID(resourceID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrResourceNotFound
		}
		return err
	}
	return s.ResourceRepo.AddBookmark(userID, resourceID)
}

func (s *ResourceService) RemoveBookmark(userID, resourceID uint) error {
	return s.ResourceRepo.RemoveBookmark(userID, resourceID)
}

func (s *ResourceService) ListBookmarks(userID uint) ([]model.Resource, error) {
	resources, err := s.ResourceRepo.ListBookmarked(userID)
	if err != nil {
		return nil, err
	}
	for i := range resources {
		resources[i].AverageRating = resources[i].ComputeAverageRating()
	}
	return resources, nil
}

func (s *ResourceService) AddComment(resourceID, userID uint, body string) (*model.ResourceComment, error) {
	if _, err := s.ResourceRepo.FindByID(resourceID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}

	comment := &model.ResourceComment{ResourceID: resourceID, UserID: userID, Body: body}
	if err := s.ResourceRepo.CreateComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ResourceService) ListComments(resourceID uint) ([]model.ResourceComment, error) {
	comments, err := s.ResourceRepo.ListComments(resourceID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if user, err := s.UserRepo.FindByID(comments[i].UserID); err == nil {
			comments[i].Username = user.Username
		} else {
			comments[i].Username = "Unknown User"
		}
	}
	return comments, nil
}
