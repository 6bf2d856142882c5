// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all wizard, activity and operational endpoints.
func NewRouter(h *Handlers, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterWizardRoutes(r, h)
	RegisterApplicationRoutes(r, h)
	RegisterActivityRoutes(r, h)
	RegisterOperationalRoutes(r)

	return r
}

// RegisterWizardRoutes registers the wizard lifecycle and mutation
// endpoints.
func RegisterWizardRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1/wizard")
	{
		api.POST("", h.CreateWizard)
		api.GET("/:id", h.GetWizard)
		api.DELETE("/:id", h.CancelWizard)
		api.POST("/:id/resume", h.ResumeWizard)

		api.POST("/:id/next", h.Next)
		api.POST("/:id/previous", h.Previous)
		api.POST("/:id/dismiss-error", h.DismissError)

		api.PUT("/:id/contact-email", h.SetContactEmail)

		api.POST("/:id/activities", h.AddActivity)
		api.DELETE("/:id/activities/:activityId", h.RemoveActivity)
		api.PUT("/:id/activities/:activityId/main", h.SetMainActivity)

		api.PUT("/:id/company-names/:index", h.SetCompanyName)
		api.POST("/:id/company-names/:index/validate", h.ValidateCompanyName)

		api.PUT("/:id/visa-package", h.SetVisaPackage)
		api.PUT("/:id/shareholding", h.SetShareholding)

		api.PATCH("/:id/shareholders/:index", h.PatchShareholder)
		api.POST("/:id/shareholders/:index/passport-scan", h.UploadScan)
		api.GET("/:id/shareholders/:index/passport-url", h.PassportURL)
		api.POST("/:id/shareholders/:index/extract", h.ExtractPassport)
		api.PUT("/:id/shareholders/:index/passport-field", h.EditPassportField)
		api.POST("/:id/shareholders/:index/confirm", h.ConfirmPassport)
	}
}

// RegisterApplicationRoutes registers the upstream application listing.
func RegisterApplicationRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/api/v1/applications", h.ListApplications)
}

// RegisterActivityRoutes registers the catalog endpoints.
func RegisterActivityRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1/activities")
	{
		api.GET("", h.ListActivities)
		api.GET("/search", h.SearchActivities)
		api.GET("/:activityId", h.GetActivity)
		api.POST("/sync", h.SyncActivities)
	}
}

// RegisterOperationalRoutes registers health and metrics endpoints.
func RegisterOperationalRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
