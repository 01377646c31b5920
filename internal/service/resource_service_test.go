package service

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/logger"
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接各自独立，收紧到单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Faculty{},
		&model.Program{},
		&model.CourseUnit{},
		&model.Resource{},
		&model.ResourceRating{},
		&model.ResourceBookmark{},
		&model.ResourceComment{},
		&model.ResourceDownloadEvent{},
	))
	return db
}

type resourceFixture struct {
	svc   *ResourceService
	db    *gorm.DB
	cfg   *config.Config
	unitA model.CourseUnit
	unitB model.CourseUnit
}

func newResourceFixture(t *testing.T) *resourceFixture {
	cfg := localTestConfig(t)
	db := setupTestDB(t)

	faculty := model.Faculty{Name: "Science", Code: "SCI"}
	require.NoError(t, db.Create(&faculty).Error)
	program := model.Program{FacultyID: faculty.ID, Name: "Computer Science", Code: "BSC-CS"}
	require.NoError(t, db.Create(&program).Error)

	unitA := model.CourseUnit{ProgramID: program.ID, Name: "Data Structures", Code: "CS201", Year: 2, Semester: 1}
	require.NoError(t, db.Create(&unitA).Error)
	unitB := model.CourseUnit{ProgramID: program.ID, Name: "Algorithms", Code: "CS202", Year: 2, Semester: 2}
	require.NoError(t, db.Create(&unitB).Error)

	storage, err := NewStorageService(cfg)
	require.NoError(t, err)

	svc := NewResourceService(
		repository.NewResourceRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewUserRepository(db),
		storage,
		cfg,
		nil,
	)

	return &resourceFixture{svc: svc, db: db, cfg: cfg, unitA: unitA, unitB: unitB}
}

func (f *resourceFixture) upload(t *testing.T, uploaderID uint, unitID uint, filename string, content []byte) *model.Resource {
	resource, err := f.svc.Upload(context.Background(), uploaderID, UploadInput{
		CourseUnitID: unitID,
		Filename:     filename,
		ContentType:  "application/pdf",
		Title:        filename,
		Type:         model.Notes,
		Content:      content,
	})
	require.NoError(t, err)
	return resource
}

func TestUploadStoresContentByDigest(t *testing.T) {
	f := newResourceFixture(t)

	content := []byte("week 1 lecture notes")
	resource := f.upload(t, 1, f.unitA.ID, "week1.pdf", content)

	assert.Equal(t, util.ContentDigest(content), resource.SHA256)
	assert.Equal(t, int64(len(content)), resource.SizeBytes)
	assert.Equal(t, 0.0, resource.AverageRating)

	stored, err := os.ReadFile(resource.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestUploadDuplicateContentConflicts(t *testing.T) {
	f := newResourceFixture(t)

	content := []byte("identical bytes")
	first := f.upload(t, 1, f.unitA.ID, "orig.pdf", content)

	// 另一用户、另一课程单元上传同样的字节也算重复
	_, err := f.svc.Upload(context.Background(), 2, UploadInput{
		CourseUnitID: f.unitB.ID,
		Filename:     "copy.pdf",
		ContentType:  "application/pdf",
		Content:      content,
	})
	var dup *util.DuplicateResourceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.Existing.ID)
}

// 唯一索引把并发上传的插入竞态变成冲突，对外仍按查重返回已有记录
func TestUploadInsertRaceReturnsDuplicate(t *testing.T) {
	f := newResourceFixture(t)

	content := []byte("simultaneous upload bytes")
	digest := util.ContentDigest(content)
	rival := model.Resource{
		CourseUnitID: f.unitA.ID,
		UploaderID:   2,
		Title:        "rival",
		Type:         model.Notes,
		Filename:     "rival.pdf",
		ContentType:  "application/pdf",
		SizeBytes:    int64(len(content)),
		SHA256:       digest,
		StoragePath:  "unused",
		URL:          "unused",
	}

	// 摘要预检通过之后、插入之前塞入同内容的行
	injected := false
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("rival_insert", func(tx *gorm.DB) {
		if injected {
			return
		}
		if r, ok := tx.Statement.Dest.(*model.Resource); !ok || r.SHA256 != digest {
			return
		}
		injected = true
		require.NoError(t, f.db.Create(&rival).Error)
	}))

	_, err := f.svc.Upload(context.Background(), 1, UploadInput{
		CourseUnitID: f.unitA.ID,
		Filename:     "mine.pdf",
		ContentType:  "application/pdf",
		Content:      content,
	})

	require.True(t, injected)
	var dup *util.DuplicateResourceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, rival.ID, dup.Existing.ID)
	assert.NotErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCheckDuplicateReportsExisting(t *testing.T) {
	f := newResourceFixture(t)

	content := []byte("preflight bytes")
	uploaded := f.upload(t, 1, f.unitA.ID, "notes.pdf", content)

	existing, err := f.svc.CheckDuplicate(f.unitB.ID, content)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, uploaded.ID, existing.ID)

	fresh, err := f.svc.CheckDuplicate(f.unitA.ID, []byte("never seen before"))
	require.NoError(t, err)
	assert.Nil(t, fresh)

	_, err = f.svc.CheckDuplicate(999, content)
	assert.ErrorIs(t, err, util.ErrCourseUnitNotFound)
}

func TestUploadRejectsUnknownCourseUnit(t *testing.T) {
	f := newResourceFixture(t)

	_, err := f.svc.Upload(context.Background(), 1, UploadInput{
		CourseUnitID: 999,
		Filename:     "a.pdf",
		Content:      []byte("x"),
	})
	assert.ErrorIs(t, err, util.ErrCourseUnitNotFound)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	f := newResourceFixture(t)
	f.cfg.Upload.MaxSizeMB = 1

	_, err := f.svc.Upload(context.Background(), 1, UploadInput{
		CourseUnitID: f.unitA.ID,
		Filename:     "big.bin",
		Content:      make([]byte, 2*1024*1024),
	})
	assert.ErrorIs(t, err, util.ErrFileTooLarge)
}

func TestLinkSharesStoredObject(t *testing.T) {
	f := newResourceFixture(t)

	original := f.upload(t, 1, f.unitA.ID, "shared.pdf", []byte("shared content"))

	linked, err := f.svc.Link(2, original.ID, f.unitB.ID, "", "")
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, linked.ID)
	assert.Equal(t, original.SHA256, linked.SHA256)
	assert.Equal(t, original.StoragePath, linked.StoragePath)
	assert.Equal(t, f.unitB.ID, linked.CourseUnitID)
	assert.Equal(t, original.Title, linked.Title)
}

func TestLinkIsIdempotent(t *testing.T) {
	f := newResourceFixture(t)

	original := f.upload(t, 1, f.unitA.ID, "shared.pdf", []byte("shared content"))

	first, err := f.svc.Link(2, original.ID, f.unitB.ID, "", "")
	require.NoError(t, err)

	second, err := f.svc.Link(2, original.ID, f.unitB.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	f.db.Model(&model.Resource{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestDeleteKeepsSharedObjectUntilLastReference(t *testing.T) {
	f := newResourceFixture(t)

	original := f.upload(t, 1, f.unitA.ID, "shared.pdf", []byte("shared content"))
	linked, err := f.svc.Link(1, original.ID, f.unitB.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), 1, false, original.ID))

	// 还有一条引用，物理文件必须保留
	_, err = os.Stat(original.StoragePath)
	assert.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), 1, false, linked.ID))

	_, err = os.Stat(original.StoragePath)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteRequiresOwnerOrAdmin(t *testing.T) {
	f := newResourceFixture(t)

	resource := f.upload(t, 1, f.unitA.ID, "mine.pdf", []byte("mine"))

	err := f.svc.Delete(context.Background(), 2, false, resource.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	// 管理员可以删除任何人的资源
	assert.NoError(t, f.svc.Delete(context.Background(), 2, true, resource.ID))
}

func TestBulkDeleteReportsMissing(t *testing.T) {
	f := newResourceFixture(t)

	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	deleted, notFound := f.svc.BulkDelete(context.Background(), []uint{resource.ID, 999})
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []uint{999}, notFound)

	_, err := f.svc.Get(1, resource.ID)
	assert.ErrorIs(t, err, util.ErrResourceNotFound)
}

func TestRateReplacesPreviousRating(t *testing.T) {
	f := newResourceFixture(t)

	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	rated, err := f.svc.Rate(resource.ID, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, rated.RatingCount)
	assert.Equal(t, 5.0, rated.AverageRating)

	// 同一用户改分：覆盖，不新增计数
	rated, err = f.svc.Rate(resource.ID, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, rated.RatingCount)
	assert.Equal(t, 3, rated.RatingSum)
	assert.Equal(t, 3.0, rated.AverageRating)
}

func TestRateValidatesRange(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	_, err := f.svc.Rate(resource.ID, 1, 0)
	assert.ErrorIs(t, err, util.ErrInvalidRating)
	_, err = f.svc.Rate(resource.ID, 1, 6)
	assert.ErrorIs(t, err, util.ErrInvalidRating)
}

func TestConcurrentFirstRatings(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	var wg sync.WaitGroup
	for i, rating := range []int{4, 2} {
		wg.Add(1)
		go func(userID uint, rating int) {
			defer wg.Done()
			_, err := f.svc.Rate(resource.ID, userID, rating)
			assert.NoError(t, err)
		}(uint(i+10), rating)
	}
	wg.Wait()

	got, err := f.svc.Get(1, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RatingCount)
	assert.Equal(t, 6, got.RatingSum)
	assert.Equal(t, 3.0, got.AverageRating)
}

func TestConcurrentDownloads(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := f.svc.MarkDownloaded(resource.ID, userID)
			assert.NoError(t, err)
		}(uint(i + 1))
	}
	wg.Wait()

	got, err := f.svc.Get(1, resource.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.DownloadCount)
	assert.NotNil(t, got.LastDownloadAt)

	var events int64
	f.db.Model(&model.ResourceDownloadEvent{}).Where("resource_id = ?", resource.ID).Count(&events)
	assert.Equal(t, int64(n), events)
}

func TestDownloadResolvesLocalPath(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("content"))

	got, resolution, err := f.svc.Download(context.Background(), resource.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, ResolutionPath, resolution.Kind)
	assert.Equal(t, resource.StoragePath, resolution.Value)
	assert.Equal(t, 1, got.DownloadCount)
}

func TestDownloadMissingFile(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("content"))

	require.NoError(t, os.Remove(resource.StoragePath))

	_, _, err := f.svc.Download(context.Background(), resource.ID, 1)
	assert.ErrorIs(t, err, util.ErrFileMissing)
}

func TestSearchRequiresMinimumLength(t *testing.T) {
	f := newResourceFixture(t)

	_, _, err := f.svc.Search(" a ", 0, 10, 0)
	assert.ErrorIs(t, err, util.ErrSearchQueryTooShort)
}

func TestSearchMatchesTitleAndFilename(t *testing.T) {
	f := newResourceFixture(t)

	f.upload(t, 1, f.unitA.ID, "graph-theory.pdf", []byte("one"))
	f.upload(t, 1, f.unitA.ID, "calculus.pdf", []byte("two"))

	results, total, err := f.svc.Search("graph", 0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "graph-theory.pdf", results[0].Filename)
}

func TestTrendingOrdersByDownloads(t *testing.T) {
	f := newResourceFixture(t)

	quiet := f.upload(t, 1, f.unitA.ID, "quiet.pdf", []byte("one"))
	popular := f.upload(t, 1, f.unitA.ID, "popular.pdf", []byte("two"))

	for i := 0; i < 3; i++ {
		_, err := f.svc.MarkDownloaded(popular.ID, uint(i+1))
		require.NoError(t, err)
	}

	results, _, err := f.svc.Trending(context.Background(), 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, popular.ID, results[0].ID)
	assert.Equal(t, quiet.ID, results[1].ID)
}

func TestBookmarkLifecycle(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	require.NoError(t, f.svc.AddBookmark(5, resource.ID))
	// 重复收藏幂等
	require.NoError(t, f.svc.AddBookmark(5, resource.ID))

	bookmarks, err := f.svc.ListBookmarks(5)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, resource.ID, bookmarks[0].ID)

	require.NoError(t, f.svc.RemoveBookmark(5, resource.ID))
	bookmarks, err = f.svc.ListBookmarks(5)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
}

func TestUpdateMetadataOwnerOnly(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	title := "Renamed"
	updated, err := f.svc.UpdateMetadata(1, resource.ID, &title, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	_, err = f.svc.UpdateMetadata(2, resource.ID, &title, nil, nil)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestGetEnrichesPerUserState(t *testing.T) {
	f := newResourceFixture(t)
	resource := f.upload(t, 1, f.unitA.ID, "a.pdf", []byte("a"))

	_, err := f.svc.Rate(resource.ID, 9, 4)
	require.NoError(t, err)
	require.NoError(t, f.svc.AddBookmark(9, resource.ID))

	got, err := f.svc.Get(9, resource.ID)
	require.NoError(t, err)
	require.NotNil(t, got.IsBookmarked)
	assert.True(t, *got.IsBookmarked)
	require.NotNil(t, got.UserRating)
	assert.Equal(t, 4, *got.UserRating)

	other, err := f.svc.Get(8, resource.ID)
	require.NoError(t, err)
	require.NotNil(t, other.IsBookmarked)
	assert.False(t, *other.IsBookmarked)
	assert.Nil(t, other.UserRating)
}
