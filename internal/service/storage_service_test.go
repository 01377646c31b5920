package service

import (
	"campus_share_backend/internal/config"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localTestConfig(t *testing.T) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: t.TempDir(),
		},
		Upload: config.UploadConfig{MaxSizeMB: 25},
	}
}

func TestLocalSaveResource(t *testing.T) {
	cfg := localTestConfig(t)
	provider := &LocalStorageProvider{Config: &cfg.Storage}

	content := []byte("lecture notes")
	digest := "abc123"

	path, url, err := provider.SaveResource(context.Background(), 7, digest, "week1.pdf", "application/pdf", content)
	require.NoError(t, err)

	// 存储名用摘要，保留原扩展名
	assert.Equal(t, filepath.Join(cfg.Storage.LocalPath, "resources", "7", "abc123.pdf"), path)
	assert.Equal(t, "/static/resources/7/abc123.pdf", url)

	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestLocalSaveResourceNoExt(t *testing.T) {
	cfg := localTestConfig(t)
	provider := &LocalStorageProvider{Config: &cfg.Storage}

	path, url, err := provider.SaveResource(context.Background(), 1, "deadbeef", "README", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Storage.LocalPath, "resources", "1", "deadbeef"), path)
	assert.Equal(t, "/static/resources/1/deadbeef", url)
}

func TestLocalSaveAvatarOverwrites(t *testing.T) {
	cfg := localTestConfig(t)
	provider := &LocalStorageProvider{Config: &cfg.Storage}

	path1, url1, err := provider.SaveAvatar(context.Background(), 42, "old.png", "image/png", []byte("old"))
	require.NoError(t, err)

	path2, url2, err := provider.SaveAvatar(context.Background(), 42, "new.png", "image/png", []byte("new"))
	require.NoError(t, err)

	// 同一用户的头像 key 固定，重复上传覆盖而不是堆积
	assert.Equal(t, path1, path2)
	assert.Equal(t, url1, url2)
	assert.Equal(t, "/static/avatars/user_42.png", url2)

	stored, err := os.ReadFile(path2)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), stored)
}

func TestLocalDelete(t *testing.T) {
	cfg := localTestConfig(t)
	provider := &LocalStorageProvider{Config: &cfg.Storage}

	path, _, err := provider.SaveResource(context.Background(), 1, "d1", "a.txt", "text/plain", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, provider.Delete(context.Background(), path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalResolveDownload(t *testing.T) {
	provider := &LocalStorageProvider{Config: &config.StorageConfig{}}

	res, err := provider.ResolveDownload(context.Background(), "/data/resources/1/d1.pdf", "/static/resources/1/d1.pdf")
	require.NoError(t, err)
	assert.Equal(t, ResolutionPath, res.Kind)
	assert.Equal(t, "/data/resources/1/d1.pdf", res.Value)
}

func TestNewStorageServiceDefaultsToLocal(t *testing.T) {
	cfg := localTestConfig(t)
	cfg.Storage.Type = ""

	svc, err := NewStorageService(cfg)
	require.NoError(t, err)
	_, ok := svc.Provider.(*LocalStorageProvider)
	assert.True(t, ok)
}

func TestNewStorageServiceAdvisoryDelete(t *testing.T) {
	cfg := localTestConfig(t)
	svc, err := NewStorageService(cfg)
	require.NoError(t, err)

	// 物理删除失败只记日志，不向上抛
	svc.Delete(context.Background(), filepath.Join(cfg.Storage.LocalPath, "no-such-file"))
}
