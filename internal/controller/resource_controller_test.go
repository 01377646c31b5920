package controller

import (
	"bytes"
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"campus_share_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type resourceRouteFixture struct {
	router *gin.Engine
	cfg    *config.Config
	svc    *service.ResourceService
	unitA  model.CourseUnit
	unitB  model.CourseUnit
}

func newResourceRouteFixture(t *testing.T) *resourceRouteFixture {
	cfg := &config.Config{
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		Upload:  config.UploadConfig{MaxSizeMB: 25},
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
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
		&model.Activity{},
	))

	faculty := model.Faculty{Name: "Science", Code: "SCI"}
	require.NoError(t, db.Create(&faculty).Error)
	program := model.Program{FacultyID: faculty.ID, Name: "Computer Science", Code: "BSC-CS"}
	require.NoError(t, db.Create(&program).Error)
	unitA := model.CourseUnit{ProgramID: program.ID, Name: "Data Structures", Code: "CS201", Year: 2, Semester: 1}
	require.NoError(t, db.Create(&unitA).Error)
	unitB := model.CourseUnit{ProgramID: program.ID, Name: "Algorithms", Code: "CS202", Year: 2, Semester: 2}
	require.NoError(t, db.Create(&unitB).Error)

	storage, err := service.NewStorageService(cfg)
	require.NoError(t, err)

	resourceSvc := service.NewResourceService(
		repository.NewResourceRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewUserRepository(db),
		storage,
		cfg,
		nil,
	)
	activitySvc := service.NewActivityService(repository.NewActivityRepository(db))
	ctrl := NewResourceController(resourceSvc, activitySvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user", &util.Claims{UserID: 1, Role: model.Student})
	})
	resources := router.Group("/api/resources")
	{
		resources.POST("", ctrl.Upload)
		resources.POST("/check-duplicate", ctrl.CheckDuplicate)
		resources.POST("/:id/link", ctrl.Link)
		resources.GET("/:id/download", ctrl.Download)
	}

	return &resourceRouteFixture{router: router, cfg: cfg, svc: resourceSvc, unitA: unitA, unitB: unitB}
}

func (f *resourceRouteFixture) seedResource(t *testing.T, unitID uint, filename string, content []byte) *model.Resource {
	resource, err := f.svc.Upload(context.Background(), 1, service.UploadInput{
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

func multipartFileBody(t *testing.T, unitID uint, filename string, content []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("course_unit_id", strconv.Itoa(int(unitID))))
	require.NoError(t, w.WriteField("title", filename))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestDownloadMissingBackingFileReturnsNotFound(t *testing.T) {
	f := newResourceRouteFixture(t)

	resource := f.seedResource(t, f.unitA.ID, "week1.pdf", []byte("lecture notes"))
	require.NoError(t, os.Remove(resource.StoragePath))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/resources/%d/download", resource.ID), nil)
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "File missing on server")
}

func TestUploadOversizedFileReturnsBadRequest(t *testing.T) {
	f := newResourceRouteFixture(t)
	f.cfg.Upload.MaxSizeMB = 1

	body, contentType := multipartFileBody(t, f.unitA.ID, "huge.pdf", bytes.Repeat([]byte("a"), 1<<20+1))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/resources", body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "File too large")
}

// 关联返回 200，无论命中已有记录还是新建记录
func TestLinkReturnsOKForExistingAndNew(t *testing.T) {
	f := newResourceRouteFixture(t)

	resource := f.seedResource(t, f.unitA.ID, "week1.pdf", []byte("shared bytes"))

	link := func() (int, uint) {
		w := httptest.NewRecorder()
		payload := fmt.Sprintf(`{"courseUnitId": %d}`, f.unitB.ID)
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/resources/%d/link", resource.ID), strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		f.router.ServeHTTP(w, req)

		var resp struct {
			Data model.Resource `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w.Code, resp.Data.ID
	}

	firstCode, firstID := link()
	require.Equal(t, http.StatusOK, firstCode)

	secondCode, secondID := link()
	require.Equal(t, http.StatusOK, secondCode)
	assert.Equal(t, firstID, secondID)
}

func TestCheckDuplicateEndpoint(t *testing.T) {
	f := newResourceRouteFixture(t)

	content := []byte("preflight bytes")
	f.seedResource(t, f.unitA.ID, "orig.pdf", content)

	body, contentType := multipartFileBody(t, f.unitB.ID, "copy.pdf", content)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/resources/check-duplicate", body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Duplicate bool            `json:"duplicate"`
			Existing  *model.Resource `json:"existing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Duplicate)
	require.NotNil(t, resp.Data.Existing)

	body, contentType = multipartFileBody(t, f.unitB.ID, "new.pdf", []byte("never seen before"))
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/resources/check-duplicate", body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var fresh struct {
		Data struct {
			Duplicate bool            `json:"duplicate"`
			Existing  *model.Resource `json:"existing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fresh))
	assert.False(t, fresh.Data.Duplicate)
	assert.Nil(t, fresh.Data.Existing)
}
