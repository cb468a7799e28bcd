package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// --- JSON Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// --- Parameter Parsing ---

// parseID parses an unsigned integer id from a URL parameter.
func parseID(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseIDParam is parseID for JSON endpoints: it answers 400 itself.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, ok := parseID(c, paramName)
	if !ok {
		respondBadRequest(c, "invalid "+paramName)
	}
	return id, ok
}

// --- HTML Pages ---

// pages renders templates with the data every page shares.
type pages struct {
	flashes Flasher
}

// render adds the pending flash and the CSRF field to data and renders name.
func (p pages) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Flash"]; !ok && p.flashes != nil {
		if flash := p.flashes.PopFlash(c.Request.Context()); flash != nil {
			data["Flash"] = flash
		}
	}
	data["CSRFField"] = middleware.CSRFField(c)
	c.HTML(status, name, data)
}

// redirect stores a flash message and answers 303 See Other.
func (p pages) redirect(c *gin.Context, location, kind, message string) {
	if p.flashes != nil && message != "" {
		p.flashes.PutFlash(c.Request.Context(), kind, message)
	}
	c.Redirect(http.StatusSeeOther, location)
}

// bindForm binds the request body into form. A body that cannot be parsed
// answers 400; missing fields are left for validation.
func (p pages) bindForm(c *gin.Context, form any) bool {
	if err := c.ShouldBind(form); err != nil {
		log.Printf("Malformed form (%s): %v", c.FullPath(), err)
		c.String(http.StatusBadRequest, "Malformed form submission")
		return false
	}
	return true
}

func (p pages) notFound(c *gin.Context, message string) {
	p.render(c, http.StatusNotFound, "not_found", gin.H{
		"Title":   "Not found",
		"Message": message,
	})
}

func (p pages) serverError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.String(http.StatusInternalServerError, "Error loading %s", context)
}

// mutationFailed redirects with the failure text as an error flash. Store
// errors never turn into a 500.
func (p pages) mutationFailed(c *gin.Context, location string, err error) {
	var storeErr *services.StoreError
	if errors.As(err, &storeErr) {
		log.Printf("Store error (%s): %v", storeErr.Op, storeErr.Err)
	}
	p.redirect(c, location, middleware.FlashError, err.Error())
}
