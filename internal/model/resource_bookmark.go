package model

// swagger:model ResourceBookmark
type ResourceBookmark struct {
	BaseModel
	UserID     uint `gorm:"not null;index;uniqueIndex:uq_bookmark_user_resource,priority:1" json:"userId"`
	ResourceID uint `gorm:"not null;index;uniqueIndex:uq_bookmark_user_resource,priority:2" json:"resourceId"`
}

func (ResourceBookmark) TableName() string {
	return "resource_bookmarks"
}
