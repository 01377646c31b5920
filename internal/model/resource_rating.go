package model

// ResourceRating holds one row per (user, resource); re-rating updates the
// row in place and the parent aggregates by delta.
// swagger:model ResourceRating
type ResourceRating struct {
	BaseModel
	UserID     uint `gorm:"not null;index;uniqueIndex:uq_rating_user_resource,priority:1" json:"userId"`
	ResourceID uint `gorm:"not null;index;uniqueIndex:uq_rating_user_resource,priority:2" json:"resourceId"`
	Rating     int  `gorm:"not null" json:"rating"` // 1-5
}

func (ResourceRating) TableName() string {
	return "resource_ratings"
}
