package model

// swagger:model Faculty
type Faculty struct {
	BaseModel
	Name string `gorm:"size:255;not null" json:"name"`
	Code string `gorm:"size:50;unique;not null" json:"code"`
}

func (Faculty) TableName() string {
	return "faculties"
}

// swagger:model Program
type Program struct {
	BaseModel
	FacultyID uint   `gorm:"not null;index" json:"facultyId"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Code      string `gorm:"size:50;unique;not null" json:"code"`
}

func (Program) TableName() string {
	return "programs"
}

// swagger:model CourseUnit
type CourseUnit struct {
	BaseModel
	ProgramID uint   `gorm:"not null;index" json:"programId"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Code      string `gorm:"size:50;index;not null" json:"code"`
	Year      int    `gorm:"not null" json:"year"`     // >= 1
	Semester  int    `gorm:"not null" json:"semester"` // 1 or 2
}

func (CourseUnit) TableName() string {
	return "course_units"
}
