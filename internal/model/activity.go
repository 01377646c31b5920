package model

import (
	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityUserLogin          ActivityType = "user_login"
	ActivityUserRegistered     ActivityType = "user_registered"
	ActivityResourceUploaded   ActivityType = "resource_uploaded"
	ActivityResourceLinked     ActivityType = "resource_linked"
	ActivityResourceDownloaded ActivityType = "resource_downloaded"
	ActivityResourceDeleted    ActivityType = "resource_deleted"
	ActivityCourseCreated      ActivityType = "course_created"
	ActivityCourseUpdated      ActivityType = "course_updated"
	ActivityCourseDeleted      ActivityType = "course_deleted"
	ActivityFacultyCreated     ActivityType = "faculty_created"
	ActivityProgramCreated     ActivityType = "program_created"
	ActivityUserRoleChanged    ActivityType = "user_role_changed"
)

// Activity is the audit trail. Rows are written by explicit Log calls at the
// end of mutating handlers, never by ORM hooks.
// swagger:model Activity
type Activity struct {
	BaseModel
	UserID      uint           `gorm:"not null;index" json:"userId"`
	Type        ActivityType   `gorm:"size:50;not null;index" json:"type"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Details     datatypes.JSON `json:"details,omitempty"`
}

func (Activity) TableName() string {
	return "activities"
}
