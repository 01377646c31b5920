package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userFixture struct {
	*resourceFixture
	userSvc *UserService
	user    model.User
}

func newUserFixture(t *testing.T) *userFixture {
	rf := newResourceFixture(t)
	require.NoError(t, rf.db.AutoMigrate(&model.User{}))

	user := model.User{
		Email:     "alice@campus.edu",
		Username:  "alice",
		Password:  "hash",
		FacultyID: 1,
		ProgramID: 1,
		Role:      model.Student,
	}
	require.NoError(t, rf.db.Create(&user).Error)

	userSvc := NewUserService(
		repository.NewUserRepository(rf.db),
		repository.NewCatalogRepository(rf.db),
		repository.NewResourceRepository(rf.db),
		rf.svc.Storage,
	)

	return &userFixture{resourceFixture: rf, userSvc: userSvc, user: user}
}

func TestUpdateProfileUsername(t *testing.T) {
	f := newUserFixture(t)

	name := "alice_new"
	updated, err := f.userSvc.UpdateProfile(f.user.ID, ProfileUpdateInput{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "alice_new", updated.Username)

	other := model.User{Email: "bob@campus.edu", Username: "bob", Password: "h", FacultyID: 1, ProgramID: 1}
	require.NoError(t, f.db.Create(&other).Error)

	taken := "bob"
	_, err = f.userSvc.UpdateProfile(f.user.ID, ProfileUpdateInput{Username: &taken})
	assert.ErrorIs(t, err, util.ErrUsernameTaken)
}

func TestSetAvatarRejectsNonImage(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.userSvc.SetAvatar(context.Background(), f.user.ID, "doc.pdf", "application/pdf", []byte("pdf"))
	assert.ErrorIs(t, err, util.ErrInvalidImageType)
}

func TestSetAvatarStoresAndLinks(t *testing.T) {
	f := newUserFixture(t)

	updated, err := f.userSvc.SetAvatar(context.Background(), f.user.ID, "me.png", "image/png", []byte("png bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, updated.AvatarURL)
	assert.NotEmpty(t, updated.AvatarPath)

	stored, err := os.ReadFile(updated.AvatarPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), stored)
}

func TestUploaderStats(t *testing.T) {
	f := newUserFixture(t)

	r1 := f.upload(t, f.user.ID, f.unitA.ID, "a.pdf", []byte("a"))
	f.upload(t, f.user.ID, f.unitA.ID, "b.pdf", []byte("b"))

	for i := 0; i < 4; i++ {
		_, err := f.svc.MarkDownloaded(r1.ID, uint(i+1))
		require.NoError(t, err)
	}
	_, err := f.svc.Rate(r1.ID, 2, 4)
	require.NoError(t, err)
	_, err = f.svc.Rate(r1.ID, 3, 3)
	require.NoError(t, err)

	stats, err := f.userSvc.Stats(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Uploads)
	assert.Equal(t, int64(4), stats.DownloadsReceived)
	// 用户维度均分保留 1 位小数
	assert.Equal(t, 3.5, stats.AverageRating)
}

func TestSetVerified(t *testing.T) {
	f := newUserFixture(t)

	updated, err := f.userSvc.SetVerified(f.user.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)

	updated, err = f.userSvc.SetVerified(f.user.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsVerified)

	_, err = f.userSvc.SetVerified(404, true)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestResetPassword(t *testing.T) {
	f := newUserFixture(t)

	require.NoError(t, f.userSvc.ResetPassword(f.user.ID, "new-secret-123"))

	var stored model.User
	require.NoError(t, f.db.First(&stored, f.user.ID).Error)
	assert.NotEqual(t, "hash", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-secret-123")))

	assert.ErrorIs(t, f.userSvc.ResetPassword(404, "whatever1"), util.ErrUserNotFound)
}

func TestDeleteUserRemovesAvatar(t *testing.T) {
	f := newUserFixture(t)

	updated, err := f.userSvc.SetAvatar(context.Background(), f.user.ID, "me.png", "image/png", []byte("png"))
	require.NoError(t, err)

	require.NoError(t, f.userSvc.Delete(context.Background(), f.user.ID))

	_, err = os.Stat(updated.AvatarPath)
	assert.True(t, os.IsNotExist(err))

	_, err = f.userSvc.Stats(f.user.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestBulkDeleteUsersReportsMissing(t *testing.T) {
	f := newUserFixture(t)

	deleted, notFound := f.userSvc.BulkDelete(context.Background(), []uint{f.user.ID, 404})
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []uint{404}, notFound)
}
