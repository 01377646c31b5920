package service

import (
	"bytes"
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/logger"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const (
	ResolutionPath     = "path"
	ResolutionRedirect = "redirect"
)

// DownloadResolution tells the caller how to serve stored bytes: stream a
// local file or redirect to a remote URL.
type DownloadResolution struct {
	Kind  string
	Value string
}

// StorageProvider 定义通用存储接口
// 返回值约定: (storage_path 即后端内部定位符, url 即客户端访问引用)
type StorageProvider interface {
	SaveResource(ctx context.Context, courseUnitID uint, digest, filename, contentType string, content []byte) (string, string, error)
	SaveAvatar(ctx context.Context, userID uint, filename, contentType string, content []byte) (string, string, error)
	Delete(ctx context.Context, storagePath string) error
	ResolveDownload(ctx context.Context, storagePath, url string) (DownloadResolution, error)
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) SaveResource(ctx context.Context, courseUnitID uint, digest, filename, contentType string, content []byte) (string, string, error) {
	ext := filepath.Ext(filename)
	storedName := digest + ext

	dir := filepath.Join(p.Config.LocalPath, "resources", fmt.Sprint(courseUnitID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}

	dst := filepath.Join(dir, storedName)
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return "", "", err
	}

	url := fmt.Sprintf("/static/resources/%d/%s", courseUnitID, storedName)
	return dst, url, nil
}

func (p *LocalStorageProvider) SaveAvatar(ctx context.Context, userID uint, filename, contentType string, content []byte) (string, string, error) {
	ext := util.FileExt(filename, contentType)
	storedName := fmt.Sprintf("user_%d%s", userID, ext)

	dir := filepath.Join(p.Config.LocalPath, "avatars")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}

	// 目标文件名固定，重新上传直接覆盖旧头像
	dst := filepath.Join(dir, storedName)
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return "", "", err
	}

	return dst, "/static/avatars/" + storedName, nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, storagePath string) error {
	return os.Remove(storagePath)
}

func (p *LocalStorageProvider) ResolveDownload(ctx context.Context, storagePath, url string) (DownloadResolution, error) {
	return DownloadResolution{Kind: ResolutionPath, Value: storagePath}, nil
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

// NewMinioStorageProvider dials the endpoint and ensures the bucket exists.
// Missing or bad credentials fail construction; this is a configuration
// error, not something to retry at request time.
func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}

	p := &MinioStorageProvider{Config: cfg, Client: client}
	if err := p.ensureBucket(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MinioStorageProvider) ensureBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.Config.RemoteTimeout)
	defer cancel()

	exists, err := p.Client.BucketExists(ctx, p.Config.MinioBucket)
	if err != nil {
		return err
	}
	if !exists {
		err = p.Client.MakeBucket(ctx, p.Config.MinioBucket, minio.MakeBucketOptions{})
		if err != nil {
			// 并发创建时 "已存在" 视为成功
			resp := minio.ToErrorResponse(err)
			if resp.Code != "BucketAlreadyOwnedByYou" && resp.Code != "BucketAlreadyExists" {
				return err
			}
		}
	}

	if p.Config.PublicRead {
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, p.Config.MinioBucket)
		if err := p.Client.SetBucketPolicy(ctx, p.Config.MinioBucket, policy); err != nil {
			return err
		}
	}

	return nil
}

func (p *MinioStorageProvider) publicURL(objectName string) string {
	scheme := "http"
	if p.Config.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, p.Config.MinioEndpoint, p.Config.MinioBucket, objectName)
}

func (p *MinioStorageProvider) put(ctx context.Context, objectName, contentType string, content []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.Config.RemoteTimeout)
	defer cancel()

	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (p *MinioStorageProvider) SaveResource(ctx context.Context, courseUnitID uint, digest, filename, contentType string, content []byte) (string, string, error) {
	if filename == "" {
		filename = digest
	}
	// 摘要做前缀目录，原始文件名得以保留且键不冲突
	objectName := fmt.Sprintf("resources/course_unit_%d/%s/%s", courseUnitID, digest, filename)

	if err := p.put(ctx, objectName, contentType, content); err != nil {
		return "", "", err
	}

	return objectName, p.publicURL(objectName), nil
}

func (p *MinioStorageProvider) SaveAvatar(ctx context.Context, userID uint, filename, contentType string, content []byte) (string, string, error) {
	ext := util.FileExt(filename, contentType)
	objectName := fmt.Sprintf("avatars/user_%d%s", userID, ext)

	if err := p.put(ctx, objectName, contentType, content); err != nil {
		return "", "", err
	}

	return objectName, p.publicURL(objectName), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, storagePath string) error {
	ctx, cancel := context.WithTimeout(ctx, p.Config.RemoteTimeout)
	defer cancel()
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, storagePath, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) ResolveDownload(ctx context.Context, storagePath, url string) (DownloadResolution, error) {
	if p.Config.PublicRead {
		return DownloadResolution{Kind: ResolutionRedirect, Value: url}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.Config.RemoteTimeout)
	defer cancel()

	presigned, err := p.Client.PresignedGetObject(ctx, p.Config.MinioBucket, storagePath, p.Config.PresignExpiry, nil)
	if err != nil {
		return DownloadResolution{}, err
	}
	return DownloadResolution{Kind: ResolutionRedirect, Value: presigned.String()}, nil
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
}

// NewStorageService picks the provider once from configuration. A remote
// provider that cannot be constructed aborts startup.
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case "minio":
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init minio storage: %w", err)
		}
		provider = p
	default:
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider}, nil
}

func (s *StorageService) SaveResource(ctx context.Context, courseUnitID uint, digest, filename, contentType string, content []byte) (string, string, error) {
	return s.Provider.SaveResource(ctx, courseUnitID, digest, filename, contentType, content)
}

func (s *StorageService) SaveAvatar(ctx context.Context, userID uint, filename, contentType string, content []byte) (string, string, error) {
	return s.Provider.SaveAvatar(ctx, userID, filename, contentType, content)
}

// Delete is advisory cleanup: the catalog row is the source of truth and a
// stored object that outlives its rows is reclaimable space, so failures are
// logged and swallowed.
func (s *StorageService) Delete(ctx context.Context, storagePath string) {
	if storagePath == "" {
		return
	}
	if err := s.Provider.Delete(ctx, storagePath); err != nil {
		logger.Log.Warn("storage delete failed, object left for reclaim",
			zap.String("storage_path", storagePath),
			zap.Error(err))
	}
}

func (s *StorageService) ResolveDownload(ctx context.Context, storagePath, url string) (DownloadResolution, error) {
	return s.Provider.ResolveDownload(ctx, storagePath, url)
}
