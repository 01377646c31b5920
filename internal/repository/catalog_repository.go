package repository

import (
	"campus_share_backend/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository covers the faculty/program/course-unit hierarchy.
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) CreateFaculty(faculty *model.Faculty) error {
	return r.DB.Create(faculty).Error
}

func (r *CatalogRepository) FindFacultyByID(id uint) (*model.Faculty, error) {
	var faculty model.Faculty
	err := r.DB.First(&faculty, id).Error
	if err != nil {
		return nil, err
	}
	return &faculty, nil
}

func (r *CatalogRepository) ListFaculties() ([]model.Faculty, error) {
	var faculties []model.Faculty
	err := r.DB.Order("code").Find(&faculties).Error
	return faculties, err
}

func (r *CatalogRepository) UpdateFaculty(faculty *model.Faculty) error {
	return r.DB.Save(faculty).Error
}

func (r *CatalogRepository) DeleteFaculty(id uint) error {
	return r.DB.Delete(&model.Faculty{}, id).Error
}

func (r *CatalogRepository) CountProgramsByFaculty(facultyID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Program{}).Where("faculty_id = ?", facultyID).Count(&count).Error
	return count, err
}

func (r *CatalogRepository) CreateProgram(program *model.Program) error {
	return r.DB.Create(program).Error
}

func (r *CatalogRepository) FindProgramByID(id uint) (*model.Program, error) {
	var program model.Program
	err := r.DB.First(&program, id).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *CatalogRepository) ListPrograms(facultyID uint) ([]model.Program, error) {
	q := r.DB.Order("code")
	if facultyID != 0 {
		q = q.Where("faculty_id = ?", facultyID)
	}
	var programs []model.Program
	err := q.Find(&programs).Error
	return programs, err
}

func (r *CatalogRepository) UpdateProgram(program *model.Program) error {
	return r.DB.Save(program).Error
}

func (r *CatalogRepository) DeleteProgram(id uint) error {
	return r.DB.Delete(&model.Program{}, id).Error
}

func (r *CatalogRepository) CreateCourseUnit(unit *model.CourseUnit) error {
	return r.DB.Create(unit).Error
}

func (r *CatalogRepository) FindCourseUnitByID(id uint) (*model.CourseUnit, error) {
	var unit model.CourseUnit
	err := r.DB.First(&unit, id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *CatalogRepository) CourseUnitExists(id uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.CourseUnit{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *CatalogRepository) ListCourseUnits(programID uint, year, semester int) ([]model.CourseUnit, error) {
	q := r.DB.Order("code")
	if programID != 0 {
		q = q.Where("program_id = ?", programID)
	}
	if year != 0 {
		q = q.Where("year = ?", year)
	}
	if semester != 0 {
		q = q.Where("semester = ?", semester)
	}
	var units []model.CourseUnit
	err := q.Find(&units).Error
	return units, err
}

func (r *CatalogRepository) UpdateCourseUnit(unit *model.CourseUnit) error {
	return r.DB.Save(unit).Error
}

func (r *CatalogRepository) DeleteCourseUnit(id uint) error {
	return r.DB.Delete(&model.CourseUnit{}, id).Error
}
