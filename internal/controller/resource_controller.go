package controller

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/repository"
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceService *service.ResourceService
	ActivityService *service.ActivityService
}

func NewResourceController(resourceService *service.ResourceService, activityService *service.ActivityService) *ResourceController {
	return &ResourceController{ResourceService: resourceService, ActivityService: activityService}
}

func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func parseIntQuery(ctx *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(ctx.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// Upload godoc
// @Summary 上传资源
// @Description 上传文件并登记到课程单元；内容重复时返回 409 与已存在的资源
// @Tags 资源
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "文件"
// @Param   course_unit_id formData int true "课程单元ID"
// @Param   title formData string false "标题"
// @Param   description formData string false "描述"
// @Param   type formData string false "资源类型"
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.Resource} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误或文件过大"
// @Failure 409 {object} util.Response "重复内容"
// @Router /api/resources [post]
func (c *ResourceController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	courseUnitID, err := strconv.ParseUint(ctx.PostForm("course_unit_id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "course_unit_id is required")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	resource, err := c.ResourceService.Upload(ctx.Request.Context(), claims.UserID, service.UploadInput{
		CourseUnitID: uint(courseUnitID),
		Filename:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Title:        ctx.PostForm("title"),
		Description:  ctx.PostForm("description"),
		Type:         model.ResourceType(ctx.PostForm("type")),
		Content:      content,
	})
	if err != nil {
		var dup *util.DuplicateResourceError
		switch {
		case errors.As(err, &dup):
			util.Conflict(ctx, "Duplicate content detected, link the existing resource instead", dup.Existing)
		case errors.Is(err, util.ErrCourseUnitNotFound):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrFileTooLarge):
			util.BadRequest(ctx, "File too large")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityResourceUploaded, "Resource uploaded",
		gin.H{"resource_id": resource.ID, "course_unit_id": resource.CourseUnitID, "sha256": resource.SHA256})
	util.Created(ctx, resource)
}

// CheckDuplicate godoc
// @Summary 上传预检
// @Description 先查内容是否已存在，再决定是否上传字节
// @Tags 资源
// @Accept  multipart/form-data
// @Produce  json
// @Param   course_unit_id formData int true "课程单元ID"
// @Param   file formData file true "待查文件"
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "课程单元不存在"
// @Router /api/resources/check-duplicate [post]
func (c *ResourceController) CheckDuplicate(ctx *gin.Context) {
	courseUnitID, err := strconv.ParseUint(ctx.PostForm("course_unit_id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "course_unit_id is required")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	existing, err := c.ResourceService.CheckDuplicate(uint(courseUnitID), content)
	if err != nil {
		if errors.Is(err, util.ErrCourseUnitNotFound) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"duplicate": existing != nil, "existing": existing})
}

// swagger:model LinkRequest
type LinkRequest struct {
	CourseUnitID uint   `json:"courseUnitId" binding:"required"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}

// Link godoc
// @Summary 关联已有内容到另一课程单元
// @Description 复用已存储的文件，新建一条目录记录；目标单元已有同内容时幂等返回已有记录
// @Tags 资源
// @Accept  json
// @Produce  json
// @Param   id path int true "已有资源ID"
// @Param   body body LinkRequest true "关联目标"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Resource} "已有或新建的记录"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/resources/{id}/link [post]
func (c *ResourceController) Link(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req LinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resource, err := c.ResourceService.Link(claims.UserID, id, req.CourseUnitID, req.Title, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResourceNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrCourseUnitNotFound):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityResourceLinked, "Resource linked",
		gin.H{"resource_id": resource.ID, "course_unit_id": req.CourseUnitID})
	util.Success(ctx, resource)
}

// Get godoc
// @Summary 资源详情
// @Tags 资源
// @Produce  json
// @Param   id path int true "资源ID"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 404 {object} util.Response
// @Router /api/resources/{id} [get]
func (c *ResourceController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	resource, err := c.ResourceService.Get(claims.UserID, id)
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resource)
}

// List godoc
// @Summary 资源列表
// @Tags 资源
// @Produce  json
// @Param   course_unit_id query int false "课程单元ID"
// @Param   uploader_id query int false "上传者ID"
// @Param   type query string false "资源类型"
// @Param   limit query int false "每页数量"
// @Param   offset query int false "偏移量"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/resources [get]
func (c *ResourceController) List(ctx *gin.Context) {
	filter := repository.ResourceFilter{
		CourseUnitID: uint(parseIntQuery(ctx, "course_unit_id", 0)),
		UploaderID:   uint(parseIntQuery(ctx, "uploader_id", 0)),
		Type:         ctx.Query("type"),
		Limit:        parseIntQuery(ctx, "limit", 20),
		Offset:       parseIntQuery(ctx, "offset", 0),
	}

	resources, total, err := c.ResourceService.List(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: resources, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// Search godoc
// @Summary 搜索资源
// @Tags 资源
// @Produce  json
// @Param   q query string true "关键词，至少2个字符"
// @Param   course_unit_id query int false "课程单元ID"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 400 {object} util.Response "关键词过短"
// @Router /api/resources/search [get]
func (c *ResourceController) Search(ctx *gin.Context) {
	limit := parseIntQuery(ctx, "limit", 20)
	offset := parseIntQuery(ctx, "offset", 0)

	resources, total, err := c.ResourceService.Search(ctx.Query("q"), uint(parseIntQuery(ctx, "course_unit_id", 0)), limit, offset)
	if err != nil {
		if errors.Is(err, util.ErrSearchQueryTooShort) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, util.PageResponse{List: resources, Total: total, Limit: limit, Offset: offset})
}

// Trending godoc
// @Summary 热门资源
// @Description 按下载量排序，短 TTL 缓存
// @Tags 资源
// @Produce  json
// @Param   course_unit_id query int false "课程单元ID"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/resources/trending [get]
func (c *ResourceController) Trending(ctx *gin.Context) {
	limit := parseIntQuery(ctx, "limit", 10)
	offset := parseIntQuery(ctx, "offset", 0)

	resources, total, err := c.ResourceService.Trending(ctx.Request.Context(), uint(parseIntQuery(ctx, "course_unit_id", 0)), limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: resources, Total: total, Limit: limit, Offset: offset})
}

// Download godoc
// @Summary 下载资源
// @Description 记录下载并返回文件流（本地存储）或 302 跳转（远端存储）
// @Tags 资源
// @Produce  octet-stream
// @Param   id path int true "资源ID"
// @Security BearerAuth
// @Success 200 "文件流"
// @Success 302 "跳转到存储地址"
// @Failure 404 {object} util.Response "资源不存在或文件已丢失"
// @Router /api/resources/{id}/download [get]
func (c *ResourceController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	resource, resolution, err := c.ResourceService.Download(ctx.Request.Context(), id, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResourceNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrFileMissing):
			util.NotFoundMessage(ctx, "File missing on server")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityResourceDownloaded, "Resource downloaded",
		gin.H{"resource_id": resource.ID})

	if resolution.Kind == service.ResolutionRedirect {
		ctx.Redirect(302, resolution.Value)
		return
	}
	ctx.FileAttachment(resolution.Value, resource.Filename)
}

// MarkDownloaded godoc
// @Summary 登记一次下载
// @Description 客户端自行取文件后调用，仅更新计数
// @Tags 资源
// @Produce  json
// @Param   id path int true "资源ID"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 404 {object} util.Response
// @Router /api/resources/{id}/downloaded [post]
func (c *ResourceController) MarkDownloaded(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	resource, err := c.ResourceService.MarkDownloaded(id, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityResourceDownloaded, "Resource downloaded",
		gin.H{"resource_id": resource.ID})
	util.Success(ctx, resource)
}

// swagger:model RateRequest
type RateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// Rate godoc
// @Summary 评分
// @Description 1-5 分，同一用户重复评分覆盖之前的分数
// @Tags 资源
// @Accept  json
// @Produce  json
// @Param   id path int true "资源ID"
// @Param   body body RateRequest true "分数"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 400 {object} util.Response "分数越界"
// @Router /api/resources/{id}/rate [post]
func (c *ResourceController) Rate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req RateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resource, err := c.ResourceService.Rate(id, claims.UserID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidRating):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrResourceNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resource)
}

// swagger:model UpdateResourceRequest
type UpdateResourceRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

// Update godoc
// @Summary 修改资源元数据
// @Tags 资源
// @Accept  json
// @Produce  json
// @Param   id path int true "资源ID"
// @Param   body body UpdateResourceRequest true "可选字段"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 403 {object} util.Response "非上传者"
// @Router /api/resources/{id} [patch]
func (c *ResourceController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req UpdateResourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var resourceType *model.ResourceType
	if req.Type != nil {
		t := model.ResourceType(*req.Type)
		resourceType = &t
	}

	resource, err := c.ResourceService.UpdateMetadata(claims.UserID, id, req.Title, req.Description, resourceType)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResourceNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resource)
}

// Delete godoc
// @Summary 删除资源
// @Description 删除目录记录；当它是存储对象的最后一条引用时一并删除物理文件
// @Tags 资源
// @Produce  json
// @Param   id path int true "资源ID"
// @Security BearerAuth
// @Success 204 "已删除"
// @Failure 403 {object} util.Response "非上传者且非管理员"
// @Failure 404 {object} util.Response
// @Router /api/resources/{id} [delete]
func (c *ResourceController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	err := c.ResourceService.Delete(ctx.Request.Context(), claims.UserID, claims.Role == model.Admin, id)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResourceNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityResourceDeleted, "Resource deleted",
		gin.H{"resource_id": id})
	util.NoContent(ctx)
}

// swagger:model BulkDeleteRequest
type BulkDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// BulkDelete godoc
// @Summary 批量删除资源
// @Description 管理端接口，逐条删除并返回成功数与未找到的ID
// @Tags 管理
// @Accept  json
// @Produce  json
// @Param   body body BulkDeleteRequest true "资源ID列表"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/resources/bulk-delete [post]
func (c *ResourceController) BulkDelete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req BulkDeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	deleted, notFound := c.ResourceService.BulkDelete(ctx.Request.Context(), req.IDs)

	c.ActivityService.Log(claims.UserID, model.ActivityResourceDeleted, "Resources bulk deleted",
		gin.H{"deleted": deleted, "not_found": notFound})
	util.Success(ctx, gin.H{"deleted": deleted, "not_found": notFound})
}

// swagger:model CommentRequest
type CommentRequest struct {
	Body string `json:"body" binding:"required,max=2000"`
}

// AddComment godoc
// @Summary 发表评论
// @Tags 资源
// @Accept  json
// @Produce  json
// @Param   id path int true "资源ID"
// @Param   body body CommentRequest true "评论内容"
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.ResourceComment}
// @Router /api/resources/{id}/comments [post]
func (c *ResourceController) AddComment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	comment, err := c.ResourceService.AddComment(id, claims.UserID, req.Body)
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, comment)
}

// ListComments godoc
// @Summary 评论列表
// @Tags 资源
// @Produce  json
// @Param   id path int true "资源ID"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ResourceComment}
// @Router /api/resources/{id}/comments [get]
func (c *ResourceController) ListComments(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	comments, err := c.ResourceService.ListComments(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, comments)
}

// Bookmark godoc
// @Summary 收藏资源
// @Tags 资源
// @Produce  json
// @Param   id path int true "资源ID"
// @Security BearerAuth
// @Success 204 "已收藏"
// @Router /api/resources/{id}/bookmark [post]
func (c *ResourceController) Bookmark(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.ResourceService.AddBookmark(claims.UserID, id); err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.NoContent(ctx)
}

// Unbookmark godoc
// @Summary 取消收藏
// @Tags 资源
// @Produce  json
// @Param   id path int true "资源ID"
// @Security BearerAuth
// @Success 204 "已取消"
// @Router /api/resources/{id}/bookmark [delete]
func (c *ResourceController) Unbookmark(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.ResourceService.RemoveBookmark(claims.UserID, id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.NoContent(ctx)
}

// ListBookmarks godoc
// @Summary 我的收藏
// @Tags 资源
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Router /api/bookmarks [get]
func (c *ResourceController) ListBookmarks(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	resources, err := c.ResourceService.ListBookmarks(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, resources)
}
