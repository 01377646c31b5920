package app

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/middleware"
	"campus_share_backend/internal/model"
	"campus_share_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		{
			auth.POST("/register", c.auth.Register)
			auth.POST("/login", c.auth.Login)
		}

		// 目录浏览无需登录
		public.GET("/faculties", c.catalog.ListFaculties)
		public.GET("/programs", c.catalog.ListPrograms)
		public.GET("/course-units", c.catalog.ListCourseUnits)
		public.GET("/course-units/:id", c.catalog.GetCourseUnit)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/auth/me", c.auth.Profile)

	users := group.Group("/users")
	{
		users.PATCH("/me", c.user.UpdateProfile)
		users.POST("/me/avatar", c.user.SetAvatar)
		users.GET("/:id/stats", c.user.Stats)
	}

	resources := group.Group("/resources")
	{
		resources.POST("", c.resource.Upload)
		resources.POST("/check-duplicate", c.resource.CheckDuplicate)
		resources.GET("", c.resource.List)
		resources.GET("/search", c.resource.Search)
		resources.GET("/trending", c.resource.Trending)
		resources.GET("/:id", c.resource.Get)
		resources.PATCH("/:id", c.resource.Update)
		resources.DELETE("/:id", c.resource.Delete)
		resources.POST("/:id/link", c.resource.Link)
		resources.GET("/:id/download", c.resource.Download)
		resources.POST("/:id/downloaded", c.resource.MarkDownloaded)
		resources.POST("/:id/rate", c.resource.Rate)
		resources.GET("/:id/comments", c.resource.ListComments)
		resources.POST("/:id/comments", c.resource.AddComment)
		resources.POST("/:id/bookmark", c.resource.Bookmark)
		resources.DELETE("/:id/bookmark", c.resource.Unbookmark)
	}

	group.GET("/bookmarks", c.resource.ListBookmarks)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/stats", c.admin.Stats)
		admin.GET("/stats/downloads", c.admin.DailyDownloads)
		admin.GET("/activities", c.admin.Activities)

		admin.GET("/users", c.user.ListUsers)
		admin.PATCH("/users/:id/role", c.user.ChangeRole)
		admin.PATCH("/users/:id/verify", c.user.SetVerified)
		admin.POST("/users/:id/password", c.user.ResetPassword)
		admin.DELETE("/users/:id", c.user.DeleteUser)

		// 目录维护
		admin.POST("/faculties", c.catalog.CreateFaculty)
		admin.PATCH("/faculties/:id", c.catalog.UpdateFaculty)
		admin.DELETE("/faculties/:id", c.catalog.DeleteFaculty)
		admin.POST("/programs", c.catalog.CreateProgram)
		admin.PATCH("/programs/:id", c.catalog.UpdateProgram)
		admin.DELETE("/programs/:id", c.catalog.DeleteProgram)
		admin.POST("/course-units", c.catalog.CreateCourseUnit)
		admin.PATCH("/course-units/:id", c.catalog.UpdateCourseUnit)
		admin.DELETE("/course-units/:id", c.catalog.DeleteCourseUnit)

		// 批量接口在角色之外还要求带外 API Key
		bulk := admin.Group("")
		bulk.Use(middleware.APIKeyMiddleware(cfg))
		{
			bulk.POST("/resources/bulk-delete", c.resource.BulkDelete)
			bulk.POST("/users/bulk-delete", c.user.BulkDeleteUsers)
		}
	}
}
