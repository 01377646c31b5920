package controller

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	CatalogService  *service.CatalogService
	ActivityService *service.ActivityService
}

func NewCatalogController(catalogService *service.CatalogService, activityService *service.ActivityService) *CatalogController {
	return &CatalogController{CatalogService: catalogService, ActivityService: activityService}
}

// swagger:model FacultyRequest
type FacultyRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	Code string `json:"code" binding:"required,max=50"`
}

// CreateFaculty godoc
// @Summary 创建学院
// @Tags 目录
// @Accept  json
// @Produce  json
// @Param   body body FacultyRequest true "学院信息"
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.Faculty}
// @Router /api/faculties [post]
func (c *CatalogController) CreateFaculty(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req FacultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	faculty, err := c.CatalogService.CreateFaculty(req.Name, req.Code)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityFacultyCreated, "Faculty created",
		gin.H{"faculty_id": faculty.ID, "name": faculty.Name})
	util.Created(ctx, faculty)
}

// ListFaculties godoc
// @Summary 学院列表
// @Tags 目录
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Faculty}
// @Router /api/faculties [get]
func (c *CatalogController) ListFaculties(ctx *gin.Context) {
	faculties, err := c.CatalogService.ListFaculties()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, faculties)
}

// swagger:model UpdateFacultyRequest
type UpdateFacultyRequest struct {
	Name *string `json:"name"`
}

// UpdateFaculty godoc
// @Summary 修改学院
// @Tags 目录
// @Accept  json
// @Produce  json
// @Param   id path int true "学院ID"
// @Param   body body UpdateFacultyRequest true "可选字段"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Faculty}
// @Failure 404 {object} util.Response
// @Router /api/faculties/{id} [patch]
func (c *CatalogController) UpdateFaculty(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req UpdateFacultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	faculty, err := c.CatalogService.UpdateFaculty(id, req.Name)
	if err != nil {
		if errors.Is(err, util.ErrFacultyNotFound) {
			util.NotFoundMessage(ctx, "Faculty not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, faculty)
}

// DeleteFaculty godoc
// @Summary 删除学院
// @Tags 目录
// @Produce  json
// @Param   id path int true "学院ID"
// @Security BearerAuth
// @Success 204 "已删除"
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "学院下仍有专业"
// @Router /api/faculties/{id} [delete]
func (c *CatalogController) DeleteFaculty(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.CatalogService.DeleteFaculty(id); err != nil {
		switch {
		case errors.Is(err, util.ErrFacultyNotFound):
			util.NotFoundMessage(ctx, "Faculty not found")
		case errors.Is(err, util.ErrFacultyInUse):
			util.Conflict(ctx, err.Error(), nil)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.NoContent(ctx)
}

// swagger:model ProgramRequest
type ProgramRequest struct {
	FacultyID uint   `json:"facultyId" binding:"required"`
	Name      string `json:"name" binding:"required,max=255"`
	Code      string `json:"code" binding:"required,max=50"`
}

// CreateProgram godoc
// @Summary 创建专业
// @Tags 目录
// @Accept  json
// @Produce  json
// @Param   body body ProgramRequest true "专业信息"
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.Program}
// @Failure 400 {object} util.Response "学院不存在"
// @Router /api/programs [post]
func (c *CatalogController) CreateProgram(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req ProgramRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	program, err := c.CatalogService.CreateProgram(req.FacultyID, req.Name, req.Code)
	if err != nil {
		if errors.Is(err, util.ErrFacultyNotFound) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityProgramCreated, "Program created",
		gin.H{"program_id": program.ID, "name": program.Name})
	util.Created(ctx, program)
}

// ListPrograms godoc
// @Summary 专业列表
// @Tags 目录
// @Produce  json
// @Param   faculty_id query int false "按学院过滤"
// @Success 200 {object} util.Response{data=[]model.Program}
// @Router /api/programs [get]
func (c *CatalogController) ListPrograms(ctx *gin.Context) {
	programs, err := c.CatalogService.ListPrograms(uint(parseIntQuery(ctx, "faculty_id", 0)))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, programs)
}

// swagger:model UpdateProgramRequest
type UpdateProgramRequest struct {
	Name      *string `json:"name"`
	FacultyID *uint   `json:"facultyId"`
}

// UpdateProgram godoc
// @Summary 修改专业
// @Tags 目录
// @Accept  json
// @Produce  json
// @Param   id path int true "专业ID"
// @Param   body body UpdateProgramRequest true "可选字段"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Program}
// @Failure 404 {object} util.Response
// @Router /api/programs/{id} [patch]
func (c *CatalogController) UpdateProgram(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req UpdateProgramRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	program, err := c.CatalogService.UpdateProgram(id, req.Name, req.FacultyID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrProgramNotFound):
			util.NotFoundMessage(ctx, "Program not found")
		case errors.Is(err, util.ErrFacultyNotFound):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, program)
}

// DeleteProgram godoc
// @Summary 删除专业
// @Tags 目录
// @Produce  json
// @Param   id path int true "专业ID"
// @Security BearerAuth
// @Success 204 "已删除"
// @Failure 404 {object} util.Response
// @Router /api/programs/{id} [delete]
func (c *CatalogController) DeleteProgram(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.CatalogService.DeleteProgram(id); err != nil {
		if errors.Is(err, util.ErrProgramNotFound) {
			util.NotFoundMessage(ctx, "Program not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.NoContent(ctx)
}

// swagger:model CourseUnitRequest
type CourseUnitRequest struct {
	ProgramID uint   `json:"programId" binding:"required"`
	Name      string `json:"name" binding:"required,max=255"`
	Code      string `json:"code" binding:"required,max=50"`
	Year      int    `json:"year" binding:"required,min=1,max=6"`
	Semester  int    `json:"semester" binding:"required,min=1,max=2"`
}

// CreateCourseUnit godoc
// @Summary 创建课程单元
// @Tags 目录
// @Accept  json
// @Produce  json
// @Param   body body CourseUnitRequest true "课程单元信息"
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.CourseUnit}
// @Failure 400 {object} util.Response "专业不存在"
// @Router /api/course-units [post]
func (c *CatalogController) CreateCourseUnit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req CourseUnitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	unit, err := c.CatalogService.CreateCourseUnit(service.CourseUnitInput{
		ProgramID: req.ProgramID,
		Name:      req.Name,
		Code:      req.Code,
		Year:      req.Year,
		Semester:  req.Semester,
	})
	if err != nil {
		if errors.Is(err, util.ErrProgramNotFound) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityCourseCreated, "Course unit created",
		gin.H{"course_unit_id": unit.ID, "code": unit.Code})
	util.Created(ctx, unit)
}

// GetCourseUnit godoc
// @Summary 课程单元详情
// @Tags 目录
// @Produce  json
// @Param   id path int true "课程单元ID"
// @Success 200 {object} util.Response{data=model.CourseUnit}
// @Failure 404 {object} util.Response
// @Router /api/course-units/{id} [get]
func (c *CatalogController) GetCourseUnit(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	unit, err := c.CatalogService.GetCourseUnit(id)
	if err != nil {
		if errors.Is(err, util.ErrCourseUnitNotFound) {
			util.NotFoundMessage(ctx, "Course unit not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, unit)
}

// ListCourseUnits godoc
// @Summary 课程单元列表
// @Tags 目录
// @Produce  json
// @Param   program_id query int false "按专业过滤"
// @Param   year query int false "按年级过滤"
// @Param   semester query int false "按学期过滤"
// @Success 200 {object} util.Response{data=[]model.CourseUnit}
// @Router /api/course-units [get]
func (c *CatalogController) ListCourseUnits(ctx *gin.Context) {
	units, err := c.CatalogService.ListCourseUnits(
		uint(parseIntQuery(ctx, "program_id", 0)),
		parseIntQuery(ctx, "year", 0),
		parseIntQuery(ctx, "semester", 0),
	)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, units)
}

// swagger:model UpdateCourseUnitRequest
type UpdateCourseUnitRequest struct {
	ProgramID uint   `json:"programId"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Year      int    `json:"year"`
	Semester  int    `json:"semester"`
}

// UpdateCourseUnit godoc
// @Summary 修改课程单元
// @Tags 目录
// @Accept  json
// @Produce  json
// @Param   id path int true "课程单元ID"
// @Param   body body UpdateCourseUnitRequest true "可选字段"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.CourseUnit}
// @Failure 404 {object} util.Response
// @Router /api/course-units/{id} [patch]
func (c *CatalogController) UpdateCourseUnit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req UpdateCourseUnitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	unit, err := c.CatalogService.UpdateCourseUnit(id, service.CourseUnitInput{
		ProgramID: req.ProgramID,
		Name:      req.Name,
		Code:      req.Code,
		Year:      req.Year,
		Semester:  req.Semester,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseUnitNotFound):
			util.NotFoundMessage(ctx, "Course unit not found")
		case errors.Is(err, util.ErrProgramNotFound):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityCourseUpdated, "Course unit updated",
		gin.H{"course_unit_id": unit.ID})
	util.Success(ctx, unit)
}

// DeleteCourseUnit godoc
// @Summary 删除课程单元
// @Description 仍有资源挂在该单元下时拒绝删除
// @Tags 目录
// @Produce  json
// @Param   id path int true "课程单元ID"
// @Security BearerAuth
// @Success 204 "已删除"
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "单元下仍有资源"
// @Router /api/course-units/{id} [delete]
func (c *CatalogController) DeleteCourseUnit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.CatalogService.DeleteCourseUnit(id); err != nil {
		switch {
		case errors.Is(err, util.ErrCourseUnitNotFound):
			util.NotFoundMessage(ctx, "Course unit not found")
		case errors.Is(err, util.ErrCourseUnitInUse):
			util.Error(ctx, 409, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityCourseDeleted, "Course unit deleted",
		gin.H{"course_unit_id": id})
	util.NoContent(ctx)
}
