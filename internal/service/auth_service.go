package service

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo    *repository.UserRepository
	CatalogRepo *repository.CatalogRepository
	Cfg         *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, catalogRepo *repository.CatalogRepository, cfg *config.Config) *AuthService {
	return &AuthService{UserRepo: userRepo, CatalogRepo: catalogRepo, Cfg: cfg}
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FacultyID uint
	ProgramID uint
}

// Register creates a student account. The chosen program must belong to the
// chosen faculty or registration is rejected.
func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	if _, err := s.UserRepo.FindByEmail(in.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if _, err := s.UserRepo.FindByUsername(in.Username); err == nil {
		return nil, util.ErrUsernameTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if _, err := s.CatalogRepo.FindFacultyByID(in.FacultyID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrFacultyNotFound
		}
		return nil, err
	}

	program, err := s.CatalogRepo.FindProgramByID(in.ProgramID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrProgramNotFound
		}
		return nil, err
	}
	if program.FacultyID != in.FacultyID {
		return nil, util.ErrProgramFacultyMatch
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     in.Email,
		Username:  in.Username,
		Password:  string(hashed),
		FacultyID: in.FacultyID,
		ProgramID: in.ProgramID,
		Role:      model.Student,
	}

	if err := s.UserRepo.Create(user); err != nil {
		// 并发注册同邮箱/用户名时唯一索引兜底
		if err == gorm.ErrDuplicatedKey {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}

	return user, nil
}

// Login checks credentials and issues a signed token. Failed lookups and bad
// passwords collapse into the same error so callers cannot probe for accounts.
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	user.LastLogin = time.Now()
	if err := s.UserRepo.Update(user); err != nil {
		return "", nil, err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) Profile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
