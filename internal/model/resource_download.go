package model

// ResourceDownloadEvent is an append-only audit row; never updated or deleted.
// swagger:model ResourceDownloadEvent
type ResourceDownloadEvent struct {
	BaseModel
	ResourceID uint `gorm:"not null;index" json:"resourceId"`
	UserID     uint `gorm:"not null;index" json:"userId"`
}

func (ResourceDownloadEvent) TableName() string {
	return "resource_download_events"
}
