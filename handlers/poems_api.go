package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/versebook/versebook/internal/poems"
	"github.com/versebook/versebook/internal/poems/service"
	"github.com/versebook/versebook/pkg/middleware"
)

// PoemAPI is the JSON counterpart of the HTML poem surface, intended for
// script and mobile clients. It shares the service layer with the HTML
// handler, so ownership and visibility rules are identical.
type PoemAPI struct {
	svc service.Service
}

func NewPoemAPI(svc service.Service) *PoemAPI {
	return &PoemAPI{svc: svc}
}

// Register mounts the JSON poem routes on the given group (normally
// /api/v1/poems behind the auth gate).
func (a *PoemAPI) Register(rg *gin.RouterGroup) {
	rg.GET("", a.List)
	rg.POST("", a.Create)
	rg.GET("/mine", a.ListMine)
	rg.GET("/:id", a.Get)
	rg.PATCH("/:id", a.Update)
	rg.DELETE("/:id", a.Delete)
}

func (a *PoemAPI) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// List returns all public poems, newest first.
func (a *PoemAPI) List(c *gin.Context) {
	list, err := a.svc.ListPublic(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"poems": list})
}

// Create accepts the allow-listed poem fields and stamps the caller as owner.
func (a *PoemAPI) Create(c *gin.Context) {
	var in poems.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := a.svc.Create(c.Request.Context(), middleware.Subject(c), &in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListMine returns every poem the caller owns, private ones included.
func (a *PoemAPI) ListMine(c *gin.Context) {
	list, err := a.svc.ListByOwner(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"poems": list})
}

// Get returns a single poem joined with its owner.
func (a *PoemAPI) Get(c *gin.Context) {
	p, err := a.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"poem": p})
}

// Update replaces the allow-listed fields of a poem the caller owns.
func (a *PoemAPI) Update(c *gin.Context) {
	var in poems.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.svc.Update(c.Request.Context(), c.Param("id"), middleware.Subject(c), &in); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}

// Delete removes a poem the caller owns.
func (a *PoemAPI) Delete(c *gin.Context) {
	if err := a.svc.Delete(c.Request.Context(), c.Param("id"), middleware.Subject(c)); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
