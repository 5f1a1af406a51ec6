package router

import (
	"Member_Registry/internal/handler"
	"Member_Registry/internal/middleware"
	"Member_Registry/internal/pkg"

	"github.com/gin-gonic/gin"
)

// Handlers 未配置数据库时只有 Auth 和 System 非空
type Handlers struct {
	Auth       *handler.AuthHandler
	System     *handler.SystemHandler
	Member     *handler.MemberHandler
	Payment    *handler.PaymentHandler
	Activity   *handler.ActivityHandler
	Dictionary *handler.DictionaryHandler
	Group      *handler.GroupHandler
	Admin      *handler.AdminHandler
	Analytics  *handler.AnalyticsHandler
}

type Options struct {
	Tokens  *pkg.TokenManager
	Users   middleware.RoleChecker
	Metrics *middleware.Metrics
}

func InitRouter(h *Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := r.Group("/api")
	optional := middleware.OptionalAuth(opts.Tokens, opts.Users)

	// 公开接口，初始化向导在未配置时也可用
	api.GET("/health", h.System.Health)
	api.GET("/setup", h.Auth.SetupStatus)
	api.POST("/setup", h.Auth.Setup)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", optional, h.Auth.Register)
		authGroup.POST("/logout", optional, h.Auth.Logout)
		authGroup.GET("/me", optional, h.Auth.Me)
	}

	if h.Member == nil {
		return r
	}

	private := api.Group("")
	private.Use(middleware.AuthMiddleware(opts.Tokens, opts.Users))

	view := middleware.RequirePermission(pkg.ActionView)
	edit := middleware.RequirePermission(pkg.ActionEdit)
	del := middleware.RequirePermission(pkg.ActionDelete)
	settings := middleware.RequirePermission(pkg.ActionSettings)

	members := private.Group("/members")
	{
		members.GET("", view, h.Member.List)
		members.POST("", edit, h.Member.Create)
		members.GET("/search", view, h.Member.Search)
		members.POST("/import", edit, h.Member.Import)
		members.GET("/export", view, h.Member.Export)
		members.GET("/:id", view, h.Member.Get)
		members.PATCH("/:id", edit, h.Member.Patch)
		members.DELETE("/:id", del, h.Member.Delete)
	}

	payments := private.Group("/payments")
	{
		payments.GET("", view, h.Payment.List)
		payments.POST("", edit, h.Payment.Create)
		payments.PATCH("/:id", edit, h.Payment.Patch)
		payments.DELETE("/:id", del, h.Payment.Delete)
	}

	activities := private.Group("/activities")
	{
		activities.GET("", view, h.Activity.List)
		activities.POST("", edit, h.Activity.Create)
		activities.POST("/import", edit, h.Activity.Import)
		activities.GET("/export", view, h.Activity.Export)
		activities.GET("/participants", view, h.Activity.AllParticipants)
		activities.GET("/:id", view, h.Activity.Get)
		activities.PATCH("/:id", edit, h.Activity.Patch)
		activities.DELETE("/:id", del, h.Activity.Delete)
		activities.POST("/:id/archive", edit, h.Activity.Archive)
		activities.POST("/:id/reactivate", edit, h.Activity.Reactivate)
		activities.GET("/:id/participants", view, h.Activity.Participants)
		activities.POST("/:id/participants", edit, h.Activity.AddParticipants)
		activities.PATCH("/:id/participants", edit, h.Activity.UpdateParticipant)
		activities.DELETE("/:id/participants", edit, h.Activity.RemoveParticipant)
		activities.POST("/:id/participants/import", edit, h.Activity.ImportParticipants)
		activities.GET("/:id/participants/export", view, h.Activity.ExportParticipants)
	}

	types := private.Group("/activity-types")
	{
		types.GET("", view, h.Dictionary.ListTypes)
		types.POST("", settings, h.Dictionary.CreateType)
		types.POST("/import", settings, h.Dictionary.ImportTypes)
		types.GET("/export", view, h.Dictionary.ExportTypes)
		types.PATCH("/:id", settings, h.Dictionary.PatchType)
		types.DELETE("/:id", settings, h.Dictionary.DeleteType)
	}

	units := private.Group("/um-units")
	{
		units.GET("", view, h.Dictionary.ListUnits)
		units.POST("", settings, h.Dictionary.CreateUnit)
		units.PATCH("/:id", settings, h.Dictionary.PatchUnit)
		units.DELETE("/:id", settings, h.Dictionary.DeleteUnit)
	}

	private.GET("/value-lists/:list", view, h.Dictionary.GetValueList)
	private.PUT("/value-lists/:list", settings, h.Dictionary.ReplaceValueList)
	private.GET("/templates/:kind", view, h.Dictionary.Template)

	groups := private.Group("/whatsapp-groups")
	{
		groups.GET("", view, h.Group.List)
		groups.POST("", edit, h.Group.Create)
		groups.GET("/:id", view, h.Group.Get)
		groups.PATCH("/:id", edit, h.Group.Patch)
		groups.DELETE("/:id", del, h.Group.Delete)
		groups.POST("/:id/members/import", edit, h.Group.ImportMembers)
		groups.GET("/:id/members/export", view, h.Group.ExportMembers)
	}

	memberGroups := private.Group("/member-groups")
	{
		memberGroups.GET("", view, h.Group.Memberships)
		memberGroups.POST("", edit, h.Group.Join)
		memberGroups.DELETE("", edit, h.Group.Leave)
	}

	private.GET("/stats", view, h.System.Stats)
	private.POST("/analytics", view, h.Analytics.Run)
	private.POST("/analytics/export", view, h.Analytics.Export)
	private.POST("/audit-logs", h.System.CreateAuditLog)
	private.GET("/audit-logs", settings, h.System.ListAuditLogs)

	admin := private.Group("/admin/users", settings)
	{
		admin.GET("", h.Admin.List)
		admin.POST("", h.Admin.Create)
		admin.PATCH("/:id", h.Admin.Patch)
		admin.DELETE("/:id", h.Admin.Delete)
	}

	return r
}
