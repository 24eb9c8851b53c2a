package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"academics/internal/academics"
	"academics/internal/store"
)

type Handler struct {
	svc   *academics.Service
	db    *store.DB
	redis *store.Redis // nil when Redis is not configured
}

func New(svc *academics.Service, db *store.DB, redis *store.Redis) *Handler {
	return &Handler{svc: svc, db: db, redis: redis}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, World!"})
}

// ---------- Health ----------

// Healthz reports 503 when the store is unreachable or a configured Redis
// is down. An unconfigured Redis does not count against health.
func (h *Handler) Healthz(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK

	dbState := "ok"
	if err := h.db.Ping(ctx); err != nil {
		dbState = "down"
		status = http.StatusServiceUnavailable
	}

	redisState := "disabled"
	if h.redis != nil {
		redisState = "ok"
		if !h.redis.Healthy(ctx) {
			redisState = "down"
			status = http.StatusServiceUnavailable
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "db": dbState, "redis": redisState})
}

// ---------- Create ----------

// create binds the body into In, runs fn and writes its result with 200.
func create[In, Out any](fn func(context.Context, In) (Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in In
		if err := c.ShouldBindJSON(&in); err != nil {
			renderBindError(c, err)
			return
		}
		out, err := fn(c.Request.Context(), in)
		if err != nil {
			renderStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (h *Handler) CreateUser(c *gin.Context)       { create(h.svc.CreateUser)(c) }
func (h *Handler) CreateDepartment(c *gin.Context) { create(h.svc.CreateDepartment)(c) }
func (h *Handler) CreateCourse(c *gin.Context)     { create(h.svc.CreateCourse)(c) }
func (h *Handler) CreateStudent(c *gin.Context)    { create(h.svc.CreateStudent)(c) }
func (h *Handler) CreateAttendanceLog(c *gin.Context) {
	create(h.svc.CreateAttendanceLog)(c)
}

// ---------- List ----------

func list[Out any](fn func(context.Context) ([]Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := fn(c.Request.Context())
		if err != nil {
			renderStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (h *Handler) ListUsers(c *gin.Context)          { list(h.svc.ListUsers)(c) }
func (h *Handler) ListDepartments(c *gin.Context)    { list(h.svc.ListDepartments)(c) }
func (h *Handler) ListCourses(c *gin.Context)        { list(h.svc.ListCourses)(c) }
func (h *Handler) ListStudents(c *gin.Context)       { list(h.svc.ListStudents)(c) }
func (h *Handler) ListAttendanceLogs(c *gin.Context) { list(h.svc.ListAttendanceLogs)(c) }
