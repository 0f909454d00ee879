package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocz/internal/constants"
	"github.com/amaumene/gostremiocz/internal/models"
)

func (h *Handler) handleManifest(c *gin.Context) {
	c.JSON(http.StatusOK, h.createManifest(c.Param("configuration") != ""))
}

// createManifest describes a stream-only addon. Configuration is required
// only when the server has no TMDB key and the request carried none.
func (h *Handler) createManifest(configured bool) models.Manifest {
	serverKey := h.config != nil && h.config.TMDBAPIKey != ""
	return models.Manifest{
		ID:          constants.AddonID,
		Version:     constants.AddonVersion,
		Name:        constants.AddonName,
		Description: constants.AddonDescription,
		Types:       constants.SupportedTypes,
		Resources:   []string{"stream"},
		Catalogs:    []models.Catalog{},
		BehaviorHints: models.BehaviorHints{
			Configurable:          true,
			ConfigurationRequired: !serverKey && !configured,
		},
		IDPrefixes: []string{"tt"},
		Logo:       constants.AddonLogo,
	}
}
