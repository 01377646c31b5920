package controller

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AdminService    *service.AdminService
	ActivityService *service.ActivityService
}

func NewAdminController(adminService *service.AdminService, activityService *service.ActivityService) *AdminController {
	return &AdminController{AdminService: adminService, ActivityService: activityService}
}

// Stats godoc
// @Summary 平台统计
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.PlatformStats}
// @Router /api/admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.AdminService.Stats()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// DailyDownloads godoc
// @Summary 每日下载趋势
// @Tags 管理
// @Produce  json
// @Param   days query int false "回看天数，默认7"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]repository.DailyDownloadCount}
// @Router /api/admin/stats/downloads [get]
func (c *AdminController) DailyDownloads(ctx *gin.Context) {
	counts, err := c.AdminService.DailyDownloads(parseIntQuery(ctx, "days", 7))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, counts)
}

// Activities godoc
// @Summary 操作日志
// @Tags 管理
// @Produce  json
// @Param   user_id query int false "按用户过滤"
// @Param   type query string false "按类型过滤"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Activity}
// @Router /api/admin/activities [get]
func (c *AdminController) Activities(ctx *gin.Context) {
	activities, err := c.ActivityService.List(
		uint(parseIntQuery(ctx, "user_id", 0)),
		model.ActivityType(ctx.Query("type")),
		parseIntQuery(ctx, "limit", 50),
		parseIntQuery(ctx, "offset", 0),
	)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, activities)
}
