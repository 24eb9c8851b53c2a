package handler

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"academics/internal/httpmiddleware"
)

// RouterConfig carries the optional middleware collaborators.
type RouterConfig struct {
	Limiter      httpmiddleware.Limiter // nil disables rate limiting
	Metrics      *httpmiddleware.Metrics
	AllowOrigins []string
}

var configureBinding sync.Once

// setupBinding makes request decoding strict and reports validation errors
// by their JSON names.
func setupBinding() {
	configureBinding.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonName)
		}
	})
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	setupBinding()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AddAllowHeaders(httpmiddleware.RequestIDHeader)
	corsCfg.AddExposeHeaders(httpmiddleware.RequestIDHeader)
	r.Use(cors.New(corsCfg))

	r.Use(httpmiddleware.SecurityHeaders())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	r.GET("/healthz", h.Healthz)

	api := r.Group("/")
	if cfg.Limiter != nil {
		api.Use(httpmiddleware.RateLimit(cfg.Limiter))
	}
	{
		api.GET("/", h.Root)

		api.GET("/users", h.ListUsers)
		api.POST("/users", h.CreateUser)

		api.GET("/departments", h.ListDepartments)
		api.POST("/departments", h.CreateDepartment)

		api.GET("/courses", h.ListCourses)
		api.POST("/course", h.CreateCourse)

		api.GET("/students", h.ListStudents)
		api.POST("/student", h.CreateStudent)

		api.GET("/attendance-log", h.ListAttendanceLogs)
		api.POST("/attendance-log", h.CreateAttendanceLog)
	}

	return r
}
