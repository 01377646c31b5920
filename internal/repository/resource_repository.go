package repository

import (
	"campus_share_backend/internal/model"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

// ResourceFilter 资源列表过滤条件
type ResourceFilter struct {
	CourseUnitID uint
	UploaderID   uint
	Type         string
	Limit        int
	Offset       int
}

func (r *ResourceRepository) Create(resource *model.Resource) error {
	return r.DB.Create(resource).Error
}

func (r *ResourceRepository) FindByID(id uint) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.First(&resource, id).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// FindByDigest looks up any catalog row with this content digest, across all
// course units. Identical bytes are the same content no matter where they
// were uploaded.
func (r *ResourceRepository) FindByDigest(digest string) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.Where("sha256 = ?", digest).First(&resource).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *ResourceRepository) FindByUnitAndDigest(courseUnitID uint, digest string) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.Where("course_unit_id = ? AND sha256 = ?", courseUnitID, digest).First(&resource).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *ResourceRepository) List(filter ResourceFilter) ([]model.Resource, int64, error) {
	q := r.DB.Model(&model.Resource{})
	if filter.CourseUnitID != 0 {
		q = q.Where("course_unit_id = ?", filter.CourseUnitID)
	}
	if filter.UploaderID != 0 {
		q = q.Where("uploader_id = ?", filter.UploaderID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resources []model.Resource
	err := q.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&resources).Error
	return resources, total, err
}

func (r *ResourceRepository) Search(term string, courseUnitID uint, limit, offset int) ([]model.Resource, int64, error) {
	pattern := "%" + term + "%"
	q := r.DB.Model(&model.Resource{}).
		Where("title LIKE ? OR description LIKE ? OR filename LIKE ?", pattern, pattern, pattern)
	if courseUnitID != 0 {
		q = q.Where("course_unit_id = ?", courseUnitID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resources []model.Resource
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&resources).Error
	return resources, total, err
}

func (r *ResourceRepository) Trending(courseUnitID uint, limit, offset int) ([]model.Resource, int64, error) {
	q := r.DB.Model(&model.Resource{})
	if courseUnitID != 0 {
		q = q.Where("course_unit_id = ?", courseUnitID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resources []model.Resource
	err := q.Order("download_count DESC").
		Order("last_download_at DESC").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&resources).Error
	return resources, total, err
}

// CountSharingStoragePath counts other catalog rows pointing at the same
// stored object. Zero means the caller holds the last reference.
func (r *ResourceRepository) CountSharingStoragePath(storagePath string, excludeID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Resource{}).
		Where("storage_path = ? AND id <> ?", storagePath, excludeID).
		Count(&count).Error
	return count, err
}

func (r *ResourceRepository) CountByCourseUnit(courseUnitID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Resource{}).Where("course_unit_id = ?", courseUnitID).Count(&count).Error
	return count, err
}

func (r *ResourceRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Resource{}, id).Error
}

func (r *ResourceRepository) UpdateMetadata(resource *model.Resource) error {
	return r.DB.Save(resource).Error
}

// RecordDownload applies the three download writes as one unit: counter
// increment, last-download timestamp, and the append-only event row. A crash
// leaves either all three or none.
func (r *ResourceRepository) RecordDownload(resourceID, userID uint) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&resource, resourceID).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&resource).Updates(map[string]interface{}{
			"download_count":   gorm.Expr("download_count + 1"),
			"last_download_at": now,
		}).Error; err != nil {
			return err
		}

		event := model.ResourceDownloadEvent{ResourceID: resourceID, UserID: userID}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		resource.DownloadCount++
		resource.LastDownloadAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// UpsertRating serializes concurrent raters on the resource row lock. A first
// rating bumps both aggregates, a re-rating adjusts the sum by delta only.
func (r *ResourceRepository) UpsertRating(resourceID, userID uint, rating int) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&resource, resourceID).Error; err != nil {
			return err
		}

		var existing model.ResourceRating
		err := tx.Where("user_id = ? AND resource_id = ?", userID, resourceID).First(&existing).Error
		switch {
		case err == nil:
			resource.RatingSum = resource.RatingSum - existing.Rating + rating
			existing.Rating = rating
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case err == gorm.ErrRecordNotFound:
			row := model.ResourceRating{UserID: userID, ResourceID: resourceID, Rating: rating}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			resource.RatingSum += rating
			resource.RatingCount++
		default:
			return err
		}

		return tx.Model(&model.Resource{}).Where("id = ?", resourceID).
			Updates(map[string]interface{}{
				"rating_sum":   resource.RatingSum,
				"rating_count": resource.RatingCount,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *ResourceRepository) GetUserRating(userID, resourceID uint) (*model.ResourceRating, error) {
	var rating model.ResourceRating
	err := r.DB.Where("user_id = ? AND resource_id = ?", userID, resourceID).First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// AddBookmark is idempotent: an existing row is a no-op.
func (r *ResourceRepository) AddBookmark(userID, resourceID uint) error {
	bookmark := model.ResourceBookmark{UserID: userID, ResourceID: resourceID}
	err := r.DB.Create(&bookmark).Error
	if err == gorm.ErrDuplicatedKey {
		return nil
	}
	return err
}

// RemoveBookmark is idempotent: a missing row is a no-op.
func (r *ResourceRepository) RemoveBookmark(userID, resourceID uint) error {
	return r.DB.Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Delete(&model.ResourceBookmark{}).Error
}

func (r *ResourceRepository) IsBookmarked(userID, resourceID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ResourceBookmark{}).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Count(&count).Error
	return count > 0, err
}

func (r *ResourceRepository) ListBookmarked(userID uint) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.DB.
		Joins("JOIN resource_bookmarks ON resource_bookmarks.resource_id = resources.id").
		Where("resource_bookmarks.user_id = ?", userID).
		Order("resources.created_at DESC").
		Find(&resources).Error
	return resources, err
}

func (r *ResourceRepository) CreateComment(comment *model.ResourceComment) error {
	return r.DB.Create(comment).Error
}

func (r *ResourceRepository) ListComments(resourceID uint) ([]model.ResourceComment, error) {
	var comments []model.ResourceComment
	err := r.DB.Where("resource_id = ?", resourceID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

func (r *ResourceRepository) CountAll() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Resource{}).Count(&count).Error
	return count, err
}

func (r *ResourceRepository) CountDownloadEvents() (int64, error) {
	var count int64
	err := r.DB.Model(&model.ResourceDownloadEvent{}).Count(&count).Error
	return count, err
}

// DailyDownloadCount 每日下载量统计
type DailyDownloadCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

func (r *ResourceRepository) DailyDownloadCounts(since time.Time) ([]DailyDownloadCount, error) {
	var rows []DailyDownloadCount
	err := r.DB.Model(&model.ResourceDownloadEvent{}).
		Select("DATE(created_at) AS day, COUNT(id) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("DATE(created_at)").
		Scan(&rows).Error
	return rows, err
}

// UploaderStats 上传者聚合统计
type UploaderStats struct {
	Uploads           int64   `json:"uploads"`
	DownloadsReceived int64   `json:"downloadsReceived"`
	AverageRating     float64 `json:"averageRating"`
}

func (r *ResourceRepository) StatsForUploader(uploaderID uint) (*UploaderStats, error) {
	var stats UploaderStats
	err := r.DB.Model(&model.Resource{}).
		Select("COUNT(id) AS uploads, COALESCE(SUM(download_count), 0) AS downloads_received").
		Where("uploader_id = ?", uploaderID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	type sums struct {
		RatingSum   int64
		RatingCount int64
	}
	var s sums
	err = r.DB.Model(&model.Resource{}).
		Select("COALESCE(SUM(rating_sum), 0) AS rating_sum, COALESCE(SUM(rating_count), 0) AS rating_count").
		Where("uploader_id = ?", uploaderID).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.RatingCount > 0 {
		// 用户聚合统计保留 1 位小数
		stats.AverageRating = math.Round(float64(s.RatingSum)/float64(s.RatingCount)*10) / 10
	}
	return &stats, nil
}
