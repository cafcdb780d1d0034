package server

import (
	"net/http"

	"crosspost/pkg/errutil"
	"crosspost/pkg/health"
	"crosspost/pkg/middleware"
	"crosspost/services/intent"
	"crosspost/services/publish"
	"crosspost/services/schema"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("api",
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

// Handler is the HTTP surface over the publish core.
type Handler struct {
	validator *intent.Validator
	tasks     *publish.Service
	registry  *schema.Registry
	logger    *zap.Logger
}

type HandlerParams struct {
	fx.In
	Validator *intent.Validator
	Tasks     *publish.Service
	Registry  *schema.Registry
	Logger    *zap.Logger `optional:"true"`
}

func NewHandler(p HandlerParams) *Handler {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		validator: p.Validator,
		tasks:     p.Tasks,
		registry:  p.Registry,
		logger:    logger,
	}
}

func RegisterRoutes(e *gin.Engine, h *Handler, hc health.HealthService) {
	e.Use(gin.Recovery(), middleware.Error())

	e.GET("/healthz", hc.Liveness)
	e.GET("/readyz", hc.Readiness)

	v1 := e.Group("/api/v1")
	{
		v1.GET("/platforms", h.listPlatforms)
		v1.GET("/platforms/:platform/fields", h.platformFields)
		v1.GET("/platforms/:platform/fields/:key/options", h.fieldOptions)

		v1.POST("/tasks", h.createTasks)
		v1.GET("/tasks", h.listTasks)
		v1.GET("/tasks/:id", h.getTask)
		v1.POST("/tasks/:id/cancel", h.cancelTask)
		v1.POST("/tasks/:id/retry", h.retryTask)
		v1.DELETE("/tasks/:id", h.deleteTask)
	}
}

func (h *Handler) listPlatforms(c *gin.Context) {
	type platformInfo struct {
		Platform schema.Platform `json:"platform"`
		Label    string          `json:"label"`
		TagLimit *int            `json:"tagLimit,omitempty"`
	}

	schemas := h.registry.Platforms()
	out := make([]platformInfo, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, platformInfo{Platform: s.Platform, Label: s.Label, TagLimit: s.TagLimit})
	}
	c.JSON(http.StatusOK, gin.H{"platforms": out})
}

func (h *Handler) platformFields(c *gin.Context) {
	s, err := h.registry.Get(schema.Platform(c.Param("platform")))
	if err != nil {
		c.Error(err)
		return
	}

	// internal fields are executor concerns, not form fields
	fields := make([]schema.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Internal {
			continue
		}
		fields = append(fields, f)
	}
	c.JSON(http.StatusOK, gin.H{
		"platform": s.Platform,
		"label":    s.Label,
		"tagLimit": s.TagLimit,
		"fields":   fields,
	})
}

func (h *Handler) fieldOptions(c *gin.Context) {
	opts, err := h.registry.Options(c.Request.Context(), schema.Platform(c.Param("platform")), c.Param("key"))
	if err != nil {
		c.Error(err)
		return
	}
	if opts == nil {
		opts = []schema.Option{}
	}
	c.JSON(http.StatusOK, gin.H{"options": opts})
}

func (h *Handler) createTasks(c *gin.Context) {
	var draft intent.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	validated, fieldErrs, err := h.validator.Validate(draft)
	if err != nil {
		c.Error(err)
		return
	}
	if len(fieldErrs) > 0 {
		c.JSON(errutil.StatusValidationFailed.HTTPStatus(), gin.H{
			"error": gin.H{
				"code":    errutil.StatusValidationFailed,
				"message": "draft failed validation",
			},
			"fieldErrors": fieldErrs,
		})
		return
	}

	tasks, err := h.tasks.Create(c.Request.Context(), intent.Expand(validated))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tasks": tasks})
}

func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), publish.Status(c.Query("status")))
	if err != nil {
		c.Error(err)
		return
	}
	if tasks == nil {
		tasks = []publish.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) cancelTask(c *gin.Context) {
	task, err := h.tasks.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) retryTask(c *gin.Context) {
	task, err := h.tasks.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
