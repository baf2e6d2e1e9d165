package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"kalyana/internal/authz"
	"kalyana/internal/handlers"
	"kalyana/internal/middleware"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Location *handlers.LocationHandler
	Provider *handlers.ProviderHandler
	NGO      *handlers.NGOHandler
	Admin    *handlers.AdminHandler
	Realtime *handlers.RealtimeHandler
	Media    *handlers.MediaHandler
}

func SetupRoutes(r *gin.Engine, h Handlers, tokens middleware.TokenParser) *gin.Engine {
	// ---- public
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/media/*path", h.Media.Serve)

	r.POST("/register", h.Auth.Register)
	r.POST("/register/verify", h.Auth.VerifyRegistration)
	r.POST("/register/resend", h.Auth.ResendRegistration)
	r.POST("/login", h.Auth.Login)
	r.POST("/forgot-password", h.Auth.ForgotPassword)
	r.POST("/forgot-password/verify", h.Auth.VerifyPasswordReset)
	r.POST("/forgot-password/resend", h.Auth.ResendPasswordReset)
	r.POST("/reset-password", h.Auth.ResetPassword)

	loc := r.Group("/location")
	{
		loc.GET("/suggest", h.Location.Suggest)
		loc.GET("/geocode", h.Location.Geocode)
	}

	// ---- protected
	auth := r.Group("/", middleware.AuthMiddleware(tokens))

	auth.GET("/realtime/stream", h.Realtime.Stream)

	provider := auth.Group("/provider", middleware.RequireRoles(authz.RoleProvider))
	{
		provider.GET("/dashboard", h.Provider.Dashboard)
		provider.POST("/surplus", h.Provider.CreateSurplus)
		provider.GET("/surplus", h.Provider.ListSurplus)
		provider.POST("/surplus/:id/photo", h.Provider.UploadPhoto)
		provider.POST("/surplus/:id/ready", h.Provider.MarkReady)
		provider.GET("/events", h.Provider.ListEvents)
		provider.POST("/events", h.Provider.CreateEvent)
		provider.GET("/allocations", h.Provider.Allocations)
		provider.POST("/allocations/:id/verify", h.Provider.VerifyPickup)
		provider.GET("/reviews", h.Provider.Reviews)
	}

	ngo := auth.Group("/ngo", middleware.RequireRoles(authz.RoleNGO))
	{
		ngo.GET("/dashboard", h.NGO.Dashboard)
		ngo.GET("/nearby-surplus", h.NGO.NearbySurplus)
		ngo.POST("/surplus/:id/request", h.NGO.RequestPickup)
		ngo.GET("/allocations", h.NGO.Allocations)
		ngo.GET("/history", h.NGO.History)
		ngo.GET("/reviews", h.NGO.Feedback)
		ngo.POST("/reviews", h.NGO.CreateReview)
		ngo.POST("/complaints", h.NGO.CreateComplaint)
	}

	admin := auth.Group("/admin", middleware.RequireRoles(authz.RoleAdmin))
	{
		admin.GET("/dashboard", h.Admin.Dashboard)
		admin.GET("/dashboard/live", h.Admin.Dashboard)
		admin.GET("/users", h.Admin.Users)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.GET("/events", h.Admin.Events)
		admin.GET("/allocations", h.Admin.Allocations)
		admin.GET("/complaints", h.Admin.Complaints)
		admin.POST("/complaints/:id/status", h.Admin.SetComplaintStatus)
		admin.GET("/analytics", h.Admin.Analytics)
		admin.GET("/analytics/report.pdf", h.Admin.AnalyticsPDF)
	}

	return r
}
