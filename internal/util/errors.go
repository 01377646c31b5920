package util

import (
	"errors"

	"campus_share_backend/internal/model"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrFileMissing         = errors.New("file missing on server")
	ErrCourseUnitNotFound  = errors.New("course unit not found")
	ErrFacultyNotFound     = errors.New("faculty not found")
	ErrProgramNotFound     = errors.New("program not found")
	ErrProgramFacultyMatch = errors.New("program does not belong to the specified faculty")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrInvalidImageType    = errors.New("avatar must be an image")
	ErrSearchQueryTooShort = errors.New("search query too short")
	ErrCourseUnitInUse     = errors.New("course unit still has resources")
	ErrFacultyInUse        = errors.New("faculty still has programs")
)

// DuplicateResourceError signals that identical bytes are already catalogued.
// It carries the existing entry so the client can link instead of re-upload.
type DuplicateResourceError struct {
	Existing *model.Resource
}

func (e *DuplicateResourceError) Error() string {
	return "duplicate content detected"
}
