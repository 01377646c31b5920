package controller

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService     *service.UserService
	ActivityService *service.ActivityService
}

func NewUserController(userService *service.UserService, activityService *service.ActivityService) *UserController {
	return &UserController{UserService: userService, ActivityService: activityService}
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	FacultyID *uint   `json:"facultyId"`
	ProgramID *uint   `json:"programId"`
}

// UpdateProfile godoc
// @Summary 修改个人资料
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body UpdateProfileRequest true "可选字段"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 409 {object} util.Response "用户名已被占用"
// @Router /api/users/me [patch]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateProfile(claims.UserID, service.ProfileUpdateInput{
		Username:  req.Username,
		FacultyID: req.FacultyID,
		ProgramID: req.ProgramID,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUsernameTaken):
			util.Error(ctx, 409, "Username already taken")
		case errors.Is(err, util.ErrFacultyNotFound), errors.Is(err, util.ErrProgramNotFound), errors.Is(err, util.ErrProgramFacultyMatch):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}

// SetAvatar godoc
// @Summary 上传头像
// @Description 同一用户再次上传直接覆盖旧头像
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "图片文件"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "不是图片"
// @Router /api/users/me/avatar [post]
func (c *UserController) SetAvatar(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

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

	user, err := c.UserService.SetAvatar(ctx.Request.Context(), claims.UserID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content)
	if err != nil {
		if errors.Is(err, util.ErrInvalidImageType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}

// Stats godoc
// @Summary 用户上传统计
// @Tags 用户
// @Produce  json
// @Param   id path int true "用户ID"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=repository.UploaderStats}
// @Failure 404 {object} util.Response
// @Router /api/users/{id}/stats [get]
func (c *UserController) Stats(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	stats, err := c.UserService.Stats(id)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "User not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.UserService.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// swagger:model ChangeRoleRequest
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student admin"`
}

// ChangeRole godoc
// @Summary 修改用户角色
// @Tags 管理
// @Accept  json
// @Produce  json
// @Param   id path int true "用户ID"
// @Param   body body ChangeRoleRequest true "目标角色"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id}/role [patch]
func (c *UserController) ChangeRole(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.ChangeRole(id, model.UserRole(req.Role))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "User not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.ActivityService.Log(claims.UserID, model.ActivityUserRoleChanged, "User role changed",
		gin.H{"target_user_id": id, "role": req.Role})
	util.Success(ctx, user)
}

// swagger:model SetVerifiedRequest
type SetVerifiedRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// SetVerified godoc
// @Summary 设置用户认证状态
// @Tags 管理
// @Accept  json
// @Produce  json
// @Param   id path int true "用户ID"
// @Param   body body SetVerifiedRequest true "认证状态"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id}/verify [patch]
func (c *UserController) SetVerified(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req SetVerifiedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.SetVerified(id, *req.Verified)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "User not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}

// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ResetPassword godoc
// @Summary 重置用户密码
// @Tags 管理
// @Accept  json
// @Produce  json
// @Param   id path int true "用户ID"
// @Param   body body ResetPasswordRequest true "新密码"
// @Security BearerAuth
// @Success 204 "已重置"
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id}/password [post]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.ResetPassword(id, req.Password); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "User not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.NoContent(ctx)
}

// DeleteUser godoc
// @Summary 删除用户
// @Tags 管理
// @Produce  json
// @Param   id path int true "用户ID"
// @Security BearerAuth
// @Success 204 "已删除"
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.UserService.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFoundMessage(ctx, "User not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.NoContent(ctx)
}

// BulkDeleteUsers godoc
// @Summary 批量删除用户
// @Tags 管理
// @Accept  json
// @Produce  json
// @Param   body body BulkDeleteRequest true "用户ID列表"
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/users/bulk-delete [post]
func (c *UserController) BulkDeleteUsers(ctx *gin.Context) {
	var req BulkDeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	deleted, notFound := c.UserService.BulkDelete(ctx.Request.Context(), req.IDs)
	util.Success(ctx, gin.H{"deleted": deleted, "not_found": notFound})
}
