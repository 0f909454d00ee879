package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocz/internal/constants"
	"github.com/amaumene/gostremiocz/internal/middleware"
	"github.com/amaumene/gostremiocz/internal/models"
)

// handleStream always answers 200 with a stream list; failures only shrink it.
func (h *Handler) handleStream(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	kind := c.Param("type")
	id := c.Param("id")
	log := h.services.Logger

	if !isSupportedType(kind) {
		log.Debugf("[StreamHandler] unsupported type %q", kind)
		c.JSON(http.StatusOK, models.StreamResponse{Streams: []models.Stream{}})
		return
	}

	resolver, session := h.services.ForRequest(h.requestConfig(c.Param("configuration")))
	streams := resolver.Resolve(ctx, kind, id, session)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Errorf("[StreamHandler] %s request timeout for %s %s", middleware.GetRequestID(c), kind, id)
	}
	c.JSON(http.StatusOK, models.StreamResponse{Streams: streams})
}
