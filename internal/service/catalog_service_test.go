package service

import (
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHierarchy(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCatalogService(repository.NewCatalogRepository(db), repository.NewResourceRepository(db))

	faculty, err := svc.CreateFaculty("Engineering", "ENG")
	require.NoError(t, err)

	program, err := svc.CreateProgram(faculty.ID, "Software Engineering", "BSE")
	require.NoError(t, err)
	assert.Equal(t, faculty.ID, program.FacultyID)

	_, err = svc.CreateProgram(999, "Orphan", "ORP")
	assert.ErrorIs(t, err, util.ErrFacultyNotFound)

	unit, err := svc.CreateCourseUnit(CourseUnitInput{
		ProgramID: program.ID,
		Name:      "Operating Systems",
		Code:      "SWE301",
		Year:      3,
		Semester:  1,
	})
	require.NoError(t, err)

	units, err := svc.ListCourseUnits(program.ID, 3, 1)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, unit.ID, units[0].ID)

	units, err = svc.ListCourseUnits(program.ID, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestDeleteFacultyBlockedWhilePrograms(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCatalogService(repository.NewCatalogRepository(db), repository.NewResourceRepository(db))

	faculty, err := svc.CreateFaculty("Science", "SCI")
	require.NoError(t, err)
	program, err := svc.CreateProgram(faculty.ID, "Physics", "PHY")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteFaculty(faculty.ID), util.ErrFacultyInUse)

	require.NoError(t, svc.DeleteProgram(program.ID))
	require.NoError(t, svc.DeleteFaculty(faculty.ID))

	assert.ErrorIs(t, svc.DeleteFaculty(faculty.ID), util.ErrFacultyNotFound)
}

func TestDeleteCourseUnitBlockedWhileInUse(t *testing.T) {
	f := newResourceFixture(t)
	catalogSvc := NewCatalogService(
		repository.NewCatalogRepository(f.db),
		repository.NewResourceRepository(f.db),
	)

	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	err := catalogSvc.DeleteCourseUnit(f.unitA.ID)
	assert.ErrorIs(t, err, util.ErrCourseUnitInUse)

	require.NoError(t, f.svc.Delete(context.Background(), 1, false, resource.ID))
	assert.NoError(t, catalogSvc.DeleteCourseUnit(f.unitA.ID))

	_, err = catalogSvc.GetCourseUnit(f.unitA.ID)
	assert.ErrorIs(t, err, util.ErrCourseUnitNotFound)
}

func TestUpdateCourseUnit(t *testing.T) {
	f := newResourceFixture(t)
	catalogSvc := NewCatalogService(
		repository.NewCatalogRepository(f.db),
		repository.NewResourceRepository(f.db),
	)

	updated, err := catalogSvc.UpdateCourseUnit(f.unitA.ID, CourseUnitInput{Name: "Advanced Data Structures"})
	require.NoError(t, err)
	assert.Equal(t, "Advanced Data Structures", updated.Name)
	// 未提供的字段保持原值
	assert.Equal(t, f.unitA.Code, updated.Code)

	_, err = catalogSvc.UpdateCourseUnit(999, CourseUnitInput{Name: "x"})
	assert.ErrorIs(t, err, util.ErrCourseUnitNotFound)
}
