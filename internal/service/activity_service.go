package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/pkg/logger"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ActivityService writes the audit trail. Logging failures are swallowed so a
// broken trail never fails the operation it describes.
type ActivityService struct {
	ActivityRepo *repository.ActivityRepository
}

func NewActivityService(activityRepo *repository.ActivityRepository) *ActivityService {
	return &ActivityService{ActivityRepo: activityRepo}
}

func (s *ActivityService) Log(userID uint, activityType model.ActivityType, description string, details map[string]interface{}) {
	activity := &model.Activity{
		UserID:      userID,
		Type:        activityType,
		Description: description,
	}

	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			activity.Details = datatypes.JSON(raw)
		}
	}

	if err := s.ActivityRepo.Create(activity); err != nil {
		logger.Log.Warn("activity log write failed",
			zap.Uint("user_id", userID),
			zap.String("type", string(activityType)),
			zap.Error(err))
	}
}

func (s *ActivityService) List(userID uint, activityType model.ActivityType, limit, offset int) ([]model.Activity, error) {
	return s.ActivityRepo.List(userID, activityType, limit, offset)
}
