package controller

import (
	"embed"
	"html/template"
	"net/http"

	"vscsfarm/internal/farm/identity"
	"vscsfarm/internal/farm/middleware"
	"vscsfarm/internal/farm/service"
	"vscsfarm/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type indexPage struct {
	Containers []service.ContainerView
}

// SessionController serves the container dashboard and its actions.
type SessionController struct {
	svc *service.SessionService
}

// NewSessionController creates a new controller.
func NewSessionController(svc *service.SessionService) *SessionController {
	return &SessionController{svc: svc}
}

// Index renders the caller's containers.
func (h *SessionController) Index(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), middleware.UserID(c), middleware.AccessToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplate,
		Name:     "index",
		Data:     indexPage{Containers: views},
	})
}

// Start launches or resumes the caller's container and redirects to the editor.
func (h *SessionController) Start(c *gin.Context) {
	id, err := identity.New(middleware.UserID(c), c.Query("contestId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	url, err := h.svc.Start(c.Request.Context(), id, middleware.AccessToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Stop stops the caller's container.
func (h *SessionController) Stop(c *gin.Context) {
	id, err := identity.New(middleware.UserID(c), c.PostForm("contestId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.Stop(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Acknowledge(c)
}

// Remove deletes the caller's container.
func (h *SessionController) Remove(c *gin.Context) {
	id, err := identity.New(middleware.UserID(c), c.PostForm("contestId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Acknowledge(c)
}

// RegisterRoutes mounts the dashboard behind auth, plus the probe endpoints.
func RegisterRoutes(router gin.IRouter, h *SessionController, auth gin.HandlerFunc) {
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })

	group := router.Group("/", auth)
	group.GET("/", h.Index)
	group.GET("/start", h.Start)
	group.POST("/stop", h.Stop)
	group.POST("/remove", h.Remove)
}
