// Package handlers implements HTTP request handlers for the Stremio addon API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocz/internal/config"
	"github.com/amaumene/gostremiocz/internal/services"
)

// Handler handles HTTP requests for the Stremio addon.
type Handler struct {
	services *services.Container
	config   *config.Config
}

// New creates a new Handler with the provided services and configuration.
func New(services *services.Container, config *config.Config) *Handler {
	return &Handler{
		services: services,
		config:   config,
	}
}

// RegisterRoutes registers all HTTP routes for the Stremio addon.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.handleHome)
	r.GET("/health", h.handleHealth)

	// Configuration routes
	r.GET("/configure", h.handleConfig)
	r.GET("/:configuration/configure", h.handleConfig)

	// Manifest routes
	r.GET("/manifest.json", h.handleManifest)
	r.GET("/:configuration/manifest.json", h.handleManifest)

	// Stream routes - handle both with and without .json in the handler
	r.GET("/stream/:type/:id", h.handleStreamWrapper)
	r.GET("/:configuration/stream/:type/:id", h.handleStreamWrapper)
}

func (h *Handler) handleHome(c *gin.Context) {
	c.String(http.StatusOK, "Přehraj.to addon for Stremio. Visit /configure to set it up.")
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) handleStreamWrapper(c *gin.Context) {
	stripJSONExtension(c, "id")
	h.handleStream(c)
}
