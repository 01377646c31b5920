package repository

import (
	"campus_share_backend/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(activity *model.Activity) error {
	return r.DB.Create(activity).Error
}

func (r *ActivityRepository) List(userID uint, activityType model.ActivityType, limit, offset int) ([]model.Activity, error) {
	q := r.DB.Order("created_at DESC").Offset(offset).Limit(limit)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if activityType != "" {
		q = q.Where("type = ?", activityType)
	}
	var activities []model.Activity
	err := q.Find(&activities).Error
	return activities, err
}
