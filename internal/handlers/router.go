package handlers

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"jobtracker/internal/metrics"
	"jobtracker/internal/middleware"
	"jobtracker/internal/models"
	"jobtracker/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const sessionCookieName = "jobtracker_session"

var registerValidatorOnce sync.Once

// SetupRouter builds the engine. A nil store falls back to a signed cookie
// store keyed by SECRET_KEY.
func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter, store sessions.Store) *gin.Engine {
	registerValidatorOnce.Do(useJSONFieldNames)

	r := gin.Default()
	r.Use(metrics.Middleware())

	if origins := splitOrigins(h.cfg.CORSOrigin); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
		}))
	}

	if store == nil {
		store = cookie.NewStore([]byte(h.cfg.SecretKey))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, store))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/health", h.Health)

	apps := api.Group("/applications")
	if h.cfg.RequireAuth {
		apps.Use(middleware.AuthRequired())
	}
	{
		apps.GET("", h.ListApplications)
		apps.POST("", h.CreateApplication)
		apps.GET("/:id", h.GetApplication)
		apps.PUT("/:id", h.UpdateApplication)
		apps.DELETE("/:id", h.DeleteApplication)

		for segment, kind := range map[string]models.DocumentKind{
			"resume":       models.DocumentResume,
			"cover-letter": models.DocumentCoverLetter,
		} {
			apps.POST("/:id/"+segment, middleware.MaxBodySize(h.cfg.MaxContentLength), h.UploadDocument(kind))
			apps.GET("/:id/"+segment, h.DownloadDocument(kind))
			apps.DELETE("/:id/"+segment, h.DeleteDocument(kind))
		}
	}

	authGroup := api.Group("/auth")
	{
		authGroup.GET("/login", middleware.RateLimit(rateLimiter), h.Login)
		authGroup.GET("/callback", middleware.RateLimit(rateLimiter), h.Callback)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
	}

	return r
}

// useJSONFieldNames makes validator report fields by their JSON names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	return origins
}
