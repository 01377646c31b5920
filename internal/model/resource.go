package model

import (
	"math"
	"time"
)

type ResourceType string

const (
	Notes      ResourceType = "notes"
	PastPaper  ResourceType = "past_paper"
	Assignment ResourceType = "assignment"
	Slides     ResourceType = "slides"
)

// Resource is one catalog entry for one logical upload. Several rows may
// share the same StoragePath when content was linked across course units;
// the physical object is removed only when the last row referencing it goes.
// swagger:model Resource
type Resource struct {
	BaseModel
	CourseUnitID uint         `gorm:"not null;index;uniqueIndex:uq_resource_unit_sha256,priority:1" json:"courseUnitId"`
	UploaderID   uint         `gorm:"not null;index" json:"uploaderId"`
	Title        string       `gorm:"size:255" json:"title"`
	Description  string       `gorm:"size:2000" json:"description"`
	Type         ResourceType `gorm:"size:50;default:'notes'" json:"type"`

	Filename    string `gorm:"size:255;not null" json:"filename"`
	ContentType string `gorm:"size:100;not null" json:"contentType"`
	SizeBytes   int64  `gorm:"not null" json:"sizeBytes"`
	SHA256      string `gorm:"column:sha256;size:64;not null;index;uniqueIndex:uq_resource_unit_sha256,priority:2" json:"sha256"`

	StoragePath string `gorm:"size:500;not null;index" json:"storagePath"`
	URL         string `gorm:"size:500;not null" json:"url"`

	DownloadCount  int        `gorm:"default:0;not null" json:"downloadCount"`
	LastDownloadAt *time.Time `json:"lastDownloadAt"`
	RatingSum      int        `gorm:"default:0;not null" json:"ratingSum"`
	RatingCount    int        `gorm:"default:0;not null" json:"ratingCount"`

	// 按请求计算，不落库
	AverageRating float64 `gorm:"-" json:"averageRating"`
	IsBookmarked  *bool   `gorm:"-" json:"isBookmarked,omitempty"`
	UserRating    *int    `gorm:"-" json:"userRating,omitempty"`
}

func (Resource) TableName() string {
	return "resources"
}

// ComputeAverageRating derives the 2-decimal average; 0.0 when unrated.
func (r *Resource) ComputeAverageRating() float64 {
	if r.RatingCount == 0 {
		return 0.0
	}
	return math.Round(float64(r.RatingSum)/float64(r.RatingCount)*100) / 100
}
