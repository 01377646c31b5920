package service

import (
	"campus_share_backend/internal/repository"
	"time"
)

type AdminService struct {
	UserRepo     *repository.UserRepository
	ResourceRepo *repository.ResourceRepository
}

func NewAdminService(userRepo *repository.UserRepository, resourceRepo *repository.ResourceRepository) *AdminService {
	return &AdminService{UserRepo: userRepo, ResourceRepo: resourceRepo}
}

type PlatformStats struct {
	TotalUsers     int64 `json:"totalUsers"`
	TotalResources int64 `json:"totalResources"`
	TotalDownloads int64 `json:"totalDownloads"`
}

func (s *AdminService) Stats() (*PlatformStats, error) {
	users, err := s.UserRepo.Count()
	if err != nil {
		return nil, err
	}
	resources, err := s.ResourceRepo.CountAll()
	if err != nil {
		return nil, err
	}
	downloads, err := s.ResourceRepo.CountDownloadEvents()
	if err != nil {
		return nil, err
	}
	return &PlatformStats{
		TotalUsers:     users,
		TotalResources: resources,
		TotalDownloads: downloads,
	}, nil
}

func (s *AdminService) DailyDownloads(days int) ([]repository.DailyDownloadCount, error) {
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.ResourceRepo.DailyDownloadCounts(since)
}
