package render

import (
	"github.com/gin-gonic/gin"
)

// View names used by the poem handlers. Templates under web/templates define
// a template per name.
const (
	ViewLogin     = "login"
	ViewDashboard = "dashboard"
	ViewPoemAdd   = "poems/add"
	ViewPoemList  = "poems/index"
	ViewPoemShow  = "poems/show"
	ViewPoemEdit  = "poems/edit"
	ViewError404  = "error/404"
	ViewError500  = "error/500"
)

// Renderer turns a view name plus a data context into a response body.
// Handlers depend on this interface so tests can substitute a recording fake.
type Renderer interface {
	HTML(c *gin.Context, status int, view string, data gin.H)
}

// HTMLRenderer renders through gin's html/template support. The engine must
// have its templates loaded (LoadHTMLGlob in main) before the first request.
type HTMLRenderer struct{}

func NewHTMLRenderer() *HTMLRenderer { return &HTMLRenderer{} }

func (r *HTMLRenderer) HTML(c *gin.Context, status int, view string, data gin.H) {
	c.HTML(status, view, data)
}
