package router

import (
	"log/slog"

	"MarsAI_Festival/internal/handler"
	"MarsAI_Festival/internal/middleware"
	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

// Deps 路由需要的处理器和中间件依赖，由 main 组装
type Deps struct {
	Log           *slog.Logger
	Tokens        *pkg.TokenManager
	Sessions      service.SessionStore
	SubmitLimiter *middleware.IPRateLimiter
	CORSOrigins   []string
	UploadDir     string

	Auth        *handler.AuthHandler
	Invitations *handler.InvitationHandler
	Users       *handler.UserHandler
	Films       *handler.FilmHandler
	Categories  *handler.CategoryHandler
	Jury        *handler.JuryHandler
	SuperJury   *handler.SuperJuryHandler
	Health      *handler.HealthHandler
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log), middleware.CORS(d.CORSOrigins))

	auth := middleware.Auth(d.Tokens, d.Sessions, d.Log)
	admin := middleware.RequireRoles(model.RoleAdmin)
	reviewers := middleware.RequireRoles(model.RoleSuperJury, model.RoleAdmin)

	// 上传文件只读访问
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	api := r.Group("/api")
	api.GET("/health", d.Health.Health)

	// 账号与邀请
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", d.Auth.Register)
		authGroup.POST("/login", d.Auth.Login)
		authGroup.GET("/invite/:token", d.Invitations.Lookup)
		authGroup.POST("/invite/:token/accept", d.Invitations.Accept)

		authGroup.POST("/logout", auth, d.Auth.Logout)
		authGroup.GET("/profile", auth, d.Auth.Profile)

		authGroup.POST("/invite", auth, admin, d.Invitations.Invite)
		authGroup.GET("/invitations", auth, admin, d.Invitations.List)
		authGroup.DELETE("/invitations/:id", auth, admin, d.Invitations.Revoke)
	}

	// token相关接口
	api.POST("/token/refresh", d.Auth.TokenRefresh)

	adminGroup := api.Group("/admin", auth, admin)
	{
		adminGroup.POST("/users", d.Users.Create)
		adminGroup.GET("/users", d.Users.List)
		adminGroup.DELETE("/users/:id", d.Users.Delete)
		adminGroup.POST("/users/:id/roles", d.Users.AddRole)
		adminGroup.DELETE("/users/:id/roles/:role", d.Users.RemoveRole)
	}

	filmGroup := api.Group("/films")
	{
		submit := []gin.HandlerFunc{d.Films.Submit}
		if d.SubmitLimiter != nil {
			submit = append([]gin.HandlerFunc{d.SubmitLimiter.Middleware()}, submit...)
		}
		filmGroup.POST("", submit...)
		filmGroup.GET("/public/catalog", d.Films.Catalog)
		filmGroup.GET("/public/:id", d.Films.PublicGet)

		filmGroup.GET("/pending", auth, admin, d.Films.ListPending)
		filmGroup.GET("/approved", auth, admin, d.Films.ListApproved)
		filmGroup.PUT("/:id/status", auth, reviewers, d.Films.UpdateStatus)
		filmGroup.PUT("/:id/categories", auth, admin, d.Films.SetCategories)
		filmGroup.DELETE("/:id", auth, admin, d.Films.Delete)
	}

	categoryGroup := api.Group("/categories")
	{
		categoryGroup.GET("", d.Categories.List)
		categoryGroup.POST("", auth, admin, d.Categories.Create)
		categoryGroup.DELETE("/:id", auth, admin, d.Categories.Delete)
	}

	// 评委工作台，管理员也可以打分
	juryGroup := api.Group("/jury", auth)
	{
		jurors := middleware.RequireRoles(model.RoleJury, model.RoleAdmin)
		juryGroup.GET("/films", jurors, d.Jury.MyFilms)
		juryGroup.GET("/films/:id", jurors, d.Jury.FilmDetail)
		juryGroup.POST("/films/:id/rate", jurors, d.Jury.Rate)
		juryGroup.GET("/rankings", middleware.RequireRoles(model.RoleJury, model.RoleSuperJury, model.RoleAdmin), d.Jury.Rankings)
	}

	superGroup := api.Group("/super-jury", auth, reviewers)
	{
		superGroup.GET("/films", d.SuperJury.Films)
		superGroup.GET("/members", d.SuperJury.Members)
		superGroup.GET("/members/:id/films", d.SuperJury.MemberFilms)
		superGroup.POST("/assign", d.SuperJury.Assign)
		superGroup.DELETE("/assign/:juryId/:filmId", d.SuperJury.Unassign)
		superGroup.POST("/random", d.SuperJury.Random)
	}

	return r
}
