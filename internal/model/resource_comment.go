package model

// swagger:model ResourceComment
type ResourceComment struct {
	BaseModel
	ResourceID uint   `gorm:"not null;index" json:"resourceId"`
	UserID     uint   `gorm:"not null;index" json:"userId"`
	Body       string `gorm:"size:2000;not null" json:"body"`

	Username string `gorm:"-" json:"username,omitempty"`
}

func (ResourceComment) TableName() string {
	return "resource_comments"
}
