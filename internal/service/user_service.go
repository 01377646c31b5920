package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo     *repository.UserRepository
	CatalogRepo  *repository.CatalogRepository
	ResourceRepo *repository.ResourceRepository
	Storage      *StorageService
}

func NewUserService(userRepo *repository.UserRepository, catalogRepo *repository.CatalogRepository, resourceRepo *repository.ResourceRepository, storage *StorageService) *UserService {
	return &UserService{UserRepo: userRepo, CatalogRepo: catalogRepo, ResourceRepo: resourceRepo, Storage: storage}
}

type ProfileUpdateInput struct {
	Username  *string
	FacultyID *uint
	ProgramID *uint
}

// UpdateProfile edits the caller's own account. Faculty and program move
// together: changing one re-validates the pair.
func (s *UserService) UpdateProfile(userID uint, in ProfileUpdateInput) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if in.Username != nil && *in.Username != user.Username {
		if _, err := s.UserRepo.FindByUsername(*in.Username); err == nil {
			return nil, util.ErrUsernameTaken
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		user.Username = *in.Username
	}

	facultyID := user.FacultyID
	programID := user.ProgramID
	if in.FacultyID != nil {
		facultyID = *in.FacultyID
	}
	if in.ProgramID != nil {
		programID = *in.ProgramID
	}

	if facultyID != user.FacultyID || programID != user.ProgramID {
		if _, err := s.CatalogRepo.FindFacultyByID(facultyID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, util.ErrFacultyNotFound
			}
			return nil, err
		}
		program, err := s.CatalogRepo.FindProgramByID(programID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, util.ErrProgramNotFound
			}
			return nil, err
		}
		if program.FacultyID != facultyID {
			return nil, util.ErrProgramFacultyMatch
		}
		user.FacultyID = facultyID
		user.ProgramID = programID
	}

	if err := s.UserRepo.Update(user); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, util.ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// SetAvatar stores the image and points the profile at it. The storage key is
// fixed per user so re-uploads overwrite in place and leave nothing behind.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, filename, contentType string, content []byte) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if !util.IsImage(contentType) {
		return nil, util.ErrInvalidImageType
	}

	storagePath, url, err := s.Storage.SaveAvatar(ctx, userID, filename, contentType, content)
	if err != nil {
		return nil, err
	}

	user.AvatarPath = storagePath
	user.AvatarURL = url
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Stats(userID uint) (*repository.UploaderStats, error) {
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return s.ResourceRepo.StatsForUploader(userID)
}

func (s *UserService) List() ([]model.User, error) {
	return s.UserRepo.List()
}

// SetVerified flips the verification flag on an account.
func (s *UserService) SetVerified(userID uint, verified bool) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	user.IsVerified = verified
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword replaces the stored hash with one for the given password.
func (s *UserService) ResetPassword(userID uint, password string) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrUserNotFound
		}
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.UserRepo.Update(user)
}

func (s *UserService) ChangeRole(userID uint, role model.UserRole) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = role
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the account and its avatar object. Uploaded resources stay;
// their catalog rows keep the uploader id for attribution history.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrUserNotFound
		}
		return err
	}

	if user.AvatarPath != "" {
		s.Storage.Delete(ctx, user.AvatarPath)
	}

	return s.UserRepo.Delete(user.ID)
}

// BulkDelete deletes accounts per item; a missing id lands in the not-found
// list instead of aborting the batch.
func (s *UserService) BulkDelete(ctx context.Context, ids []uint) (int, []uint) {
	deleted := 0
	notFound := []uint{}

	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			notFound = append(notFound, id)
			continue
		}
		deleted++
	}

	return deleted, notFound
}
