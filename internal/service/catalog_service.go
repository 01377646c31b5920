package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"

	"gorm.io/gorm"
)

// CatalogService manages the faculty -> program -> course unit hierarchy.
type CatalogService struct {
	CatalogRepo  *repository.CatalogRepository
	ResourceRepo *repository.ResourceRepository
}

func NewCatalogService(catalogRepo *repository.CatalogRepository, resourceRepo *repository.ResourceRepository) *CatalogService {
	return &CatalogService{CatalogRepo: catalogRepo, ResourceRepo: resourceRepo}
}

func (s *CatalogService) CreateFaculty(name, code string) (*model.Faculty, error) {
	faculty := &model.Faculty{Name: name, Code: code}
	if err := s.CatalogRepo.CreateFaculty(faculty); err != nil {
		return nil, err
	}
	return faculty, nil
}

func (s *CatalogService) ListFaculties() ([]model.Faculty, error) {
	return s.CatalogRepo.ListFaculties()
}

func (s *CatalogService) UpdateFaculty(id uint, name *string) (*model.Faculty, error) {
	faculty, err := s.CatalogRepo.FindFacultyByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrFacultyNotFound
		}
		return nil, err
	}

	if name != nil {
		faculty.Name = *name
	}

	if err := s.CatalogRepo.UpdateFaculty(faculty); err != nil {
		return nil, err
	}
	return faculty, nil
}

// DeleteFaculty 删除学院, 下属专业存在时拒绝
func (s *CatalogService) DeleteFaculty(id uint) error {
	if _, err := s.CatalogRepo.FindFacultyByID(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrFacultyNotFound
		}
		return err
	}

	count, err := s.CatalogRepo.CountProgramsByFaculty(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.ErrFacultyInUse
	}
	return s.CatalogRepo.DeleteFaculty(id)
}

func (s *CatalogService) CreateProgram(facultyID uint, name, code string) (*model.Program, error) {
	if _, err := s.CatalogRepo.FindFacultyByID(facultyID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrFacultyNotFound
		}
		return nil, err
	}

	program := &model.Program{FacultyID: facultyID, Name: name, Code: code}
	if err := s.CatalogRepo.CreateProgram(program); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *CatalogService) ListPrograms(facultyID uint) ([]model.Program, error) {
	return s.CatalogRepo.ListPrograms(facultyID)
}

func (s *CatalogService) UpdateProgram(id uint, name *string, facultyID *uint) (*model.Program, error) {
	program, err := s.CatalogRepo.FindProgramByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrProgramNotFound
		}
		return nil, err
	}

	if facultyID != nil {
		if _, err := s.CatalogRepo.FindFacultyByID(*facultyID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, util.ErrFacultyNotFound
			}
			return nil, err
		}
		program.FacultyID = *facultyID
	}
	if name != nil {
		program.Name = *name
	}

	if err := s.CatalogRepo.UpdateProgram(program); err != nil {
		return nil, err
	}
	return program, nil
}

func (s *CatalogService) DeleteProgram(id uint) error {
	if _, err := s.CatalogRepo.FindProgramByID(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrProgramNotFound
		}
		return err
	}
	return s.CatalogRepo.DeleteProgram(id)
}

type CourseUnitInput struct {
	ProgramID uint
	Name      string
	Code      string
	Year      int
	Semester  int
}

func (s *CatalogService) CreateCourseUnit(in CourseUnitInput) (*model.CourseUnit, error) {
	if _, err := s.CatalogRepo.FindProgramByID(in.ProgramID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrProgramNotFound
		}
		return nil, err
	}

	unit := &model.CourseUnit{
		ProgramID: in.ProgramID,
		Name:      in.Name,
		Code:      in.Code,
		Year:      in.Year,
		Semester:  in.Semester,
	}
	if err := s.CatalogRepo.CreateCourseUnit(unit); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *CatalogService) GetCourseUnit(id uint) (*model.CourseUnit, error) {
	unit, err := s.CatalogRepo.FindCourseUnitByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseUnitNotFound
		}
		return nil, err
	}
	return unit, nil
}

func (s *CatalogService) ListCourseUnits(programID uint, year, semester int) ([]model.CourseUnit, error) {
	return s.CatalogRepo.ListCourseUnits(programID, year, semester)
}

func (s *CatalogService) UpdateCourseUnit(id uint, in CourseUnitInput) (*model.CourseUnit, error) {
	unit, err := s.CatalogRepo.FindCourseUnitByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseUnitNotFound
		}
		return nil, err
	}

	if in.ProgramID != 0 && in.ProgramID != unit.ProgramID {
		if _, err := s.CatalogRepo.FindProgramByID(in.ProgramID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, util.ErrProgramNotFound
			}
			return nil, err
		}
		unit.ProgramID = in.ProgramID
	}
	if in.Name != "" {
		unit.Name = in.Name
	}
	if in.Code != "" {
		unit.Code = in.Code
	}
	if in.Year != 0 {
		unit.Year = in.Year
	}
	if in.Semester != 0 {
		unit.Semester = in.Semester
	}

	if err := s.CatalogRepo.UpdateCourseUnit(unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// DeleteCourseUnit refuses while resources still reference the unit; deleting
// the unit first would strand their rows and storage refcounts.
func (s *CatalogService) DeleteCourseUnit(id uint) error {
	if _, err := s.CatalogRepo.FindCourseUnitByID(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrCourseUnitNotFound
		}
		return err
	}

	count, err := s.ResourceRepo.CountByCourseUnit(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.ErrCourseUnitInUse
	}

	return s.CatalogRepo.DeleteCourseUnit(id)
}
