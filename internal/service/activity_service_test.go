package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLogAndList(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.AutoMigrate(&model.Activity{}))

	svc := NewActivityService(repository.NewActivityRepository(db))

	svc.Log(1, model.ActivityResourceUploaded, "Resource uploaded", map[string]interface{}{"resource_id": 7})
	svc.Log(1, model.ActivityUserLogin, "User logged in", nil)
	svc.Log(2, model.ActivityResourceDownloaded, "Resource downloaded", nil)

	all, err := svc.List(0, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.List(1, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	uploads, err := svc.List(0, model.ActivityResourceUploaded, 10, 0)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Contains(t, string(uploads[0].Details), "resource_id")
}
