package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/versebook/versebook/internal/poems"
	"github.com/versebook/versebook/internal/poems/service"
	"github.com/versebook/versebook/internal/render"
	"github.com/versebook/versebook/pkg/logger"
	"github.com/versebook/versebook/pkg/metrics"
	"github.com/versebook/versebook/pkg/middleware"
)

const (
	dashboardPath = "/dashboard"
	poemsPath     = "/poems"

	coverURLTTL = 15 * time.Minute
)

// MediaStore stores poem cover images. Satisfied by storage.MinIOStorage.
type MediaStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Handler exposes the poem CRUD surface. All routes require the auth
// middleware to have run; the caller identity comes from the request-scoped
// claims, never from process state or the request body.
type Handler struct {
	svc    service.Service
	render render.Renderer
	media  MediaStore
}

func New(svc service.Service, r render.Renderer, media MediaStore) *Handler {
	return &Handler{svc: svc, render: r, media: media}
}

// Register mounts the poem routes on the given group (normally /poems behind
// the auth gate).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/add", h.ShowCreateForm)
	rg.POST("", h.Create)
	rg.GET("", h.ListPublic)
	rg.GET("/:id", h.GetByID)
	rg.GET("/edit/:id", h.ShowEditForm)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/user/:userId", h.ListByUser)
	rg.POST("/:id/cover", h.UploadCover)
}

// RegisterDashboard mounts the authenticated dashboard route.
func (h *Handler) RegisterDashboard(rg *gin.RouterGroup) {
	rg.GET(dashboardPath, h.Dashboard)
}

func (h *Handler) serverError(c *gin.Context, op string, err error) {
	logger.Errorf("poems %s: %v", op, err)
	metrics.PoemOps.WithLabelValues(op, "error").Inc()
	h.render.HTML(c, http.StatusInternalServerError, render.ViewError500, gin.H{})
}

func (h *Handler) notFound(c *gin.Context, op string) {
	metrics.PoemOps.WithLabelValues(op, "not_found").Inc()
	h.render.HTML(c, http.StatusNotFound, render.ViewError404, gin.H{})
}

// forbidden redirects a non-owner back to the public list without surfacing
// an error.
func (h *Handler) forbidden(c *gin.Context, op string) {
	metrics.PoemOps.WithLabelValues(op, "forbidden").Inc()
	c.Redirect(http.StatusFound, poemsPath)
}

func (h *Handler) ok(c *gin.Context, op string) {
	metrics.PoemOps.WithLabelValues(op, "ok").Inc()
}

// ShowCreateForm renders the empty creation form.
func (h *Handler) ShowCreateForm(c *gin.Context) {
	h.ok(c, "add_form")
	h.render.HTML(c, http.StatusOK, render.ViewPoemAdd, gin.H{})
}

// Create persists a new poem owned by the caller and redirects to the
// dashboard. Only the allow-listed fields are read from the body.
func (h *Handler) Create(c *gin.Context) {
	var in poems.Input
	if err := c.ShouldBind(&in); err != nil {
		h.serverError(c, "create", err)
		return
	}
	owner := middleware.Subject(c)
	if _, err := h.svc.Create(c.Request.Context(), owner, &in); err != nil {
		h.serverError(c, "create", err)
		return
	}
	h.ok(c, "create")
	c.Redirect(http.StatusFound, dashboardPath)
}

// ListPublic renders all public poems, newest first, each joined with its
// owner.
func (h *Handler) ListPublic(c *gin.Context) {
	list, err := h.svc.ListPublic(c.Request.Context())
	if err != nil {
		h.serverError(c, "list", err)
		return
	}
	h.ok(c, "list")
	h.render.HTML(c, http.StatusOK, render.ViewPoemList, gin.H{"poems": list})
}

// GetByID renders a single poem. Storage failures render the not-found page
// like a missing record does, but are still logged as faults.
func (h *Handler) GetByID(c *gin.Context) {
	p, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			logger.Errorf("poems show: %v", err)
		}
		h.notFound(c, "show")
		return
	}
	data := gin.H{"poem": p}
	if h.media != nil && p.CoverKey != "" {
		if url, err := h.media.GetPresignedURL(c.Request.Context(), p.CoverKey, coverURLTTL); err == nil {
			data["coverUrl"] = url
		} else {
			logger.Warnf("poems show: presign cover %s: %v", p.CoverKey, err)
		}
	}
	h.ok(c, "show")
	h.render.HTML(c, http.StatusOK, render.ViewPoemShow, data)
}

// ShowEditForm renders the edit form pre-populated with the stored record.
// Non-owners are silently redirected to the public list.
func (h *Handler) ShowEditForm(c *gin.Context) {
	p, err := h.svc.GetForEdit(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.notFound(c, "edit_form")
			return
		}
		h.serverError(c, "edit_form", err)
		return
	}
	if p.User != middleware.Subject(c) {
		h.forbidden(c, "edit_form")
		return
	}
	h.ok(c, "edit_form")
	h.render.HTML(c, http.StatusOK, render.ViewPoemEdit, gin.H{"poem": p})
}

// Update replaces the allow-listed fields of an owned poem. The ownership
// check and the write are a single conditional storage operation.
func (h *Handler) Update(c *gin.Context) {
	var in poems.Input
	if err := c.ShouldBind(&in); err != nil {
		h.serverError(c, "update", err)
		return
	}
	owner := middleware.Subject(c)
	err := h.svc.Update(c.Request.Context(), c.Param("id"), owner, &in)
	switch {
	case err == nil:
		h.ok(c, "update")
		c.Redirect(http.StatusFound, dashboardPath)
	case errors.Is(err, service.ErrNotFound):
		h.notFound(c, "update")
	case errors.Is(err, service.ErrForbidden):
		h.forbidden(c, "update")
	default:
		h.serverError(c, "update", err)
	}
}

// Delete removes an owned poem and redirects to the dashboard.
func (h *Handler) Delete(c *gin.Context) {
	owner := middleware.Subject(c)
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), owner)
	switch {
	case err == nil:
		h.ok(c, "delete")
		c.Redirect(http.StatusFound, dashboardPath)
	case errors.Is(err, service.ErrNotFound):
		h.notFound(c, "delete")
	case errors.Is(err, service.ErrForbidden):
		h.forbidden(c, "delete")
	default:
		h.serverError(c, "delete", err)
	}
}

// ListByUser renders the target user's public poems.
func (h *Handler) ListByUser(c *gin.Context) {
	list, err := h.svc.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.serverError(c, "list_by_user", err)
		return
	}
	h.ok(c, "list_by_user")
	h.render.HTML(c, http.StatusOK, render.ViewPoemList, gin.H{"poems": list})
}

// Dashboard renders every poem the caller owns, regardless of status.
func (h *Handler) Dashboard(c *gin.Context) {
	owner := middleware.Subject(c)
	list, err := h.svc.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		h.serverError(c, "dashboard", err)
		return
	}
	h.ok(c, "dashboard")
	h.render.HTML(c, http.StatusOK, render.ViewDashboard, gin.H{"poems": list})
}

// UploadCover stores a cover image for an owned poem in the media store and
// records its key on the record.
func (h *Handler) UploadCover(c *gin.Context) {
	if h.media == nil {
		h.serverError(c, "cover", errors.New("media storage not configured"))
		return
	}
	file, err := c.FormFile("cover")
	if err != nil {
		h.serverError(c, "cover", err)
		return
	}
	id := c.Param("id")
	owner := middleware.Subject(c)

	// verify ownership first so a non-owner upload never reaches the store
	key := "poems/" + id + "/cover"
	src, err := file.Open()
	if err != nil {
		h.serverError(c, "cover", err)
		return
	}
	defer src.Close()

	switch err := h.svc.SetCover(c.Request.Context(), id, owner, key); {
	case err == nil:
	case errors.Is(err, service.ErrNotFound):
		h.notFound(c, "cover")
		return
	case errors.Is(err, service.ErrForbidden):
		h.forbidden(c, "cover")
		return
	default:
		h.serverError(c, "cover", err)
		return
	}

	ct := file.Header.Get("Content-Type")
	if err := h.media.UploadFile(c.Request.Context(), key, src, file.Size, ct); err != nil {
		h.serverError(c, "cover", err)
		return
	}
	h.ok(c, "cover")
	c.Redirect(http.StatusFound, poemsPath+"/"+id)
}
