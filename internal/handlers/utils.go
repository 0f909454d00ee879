package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocz/internal/config"
	"github.com/amaumene/gostremiocz/internal/constants"
)

// stripJSONExtension removes .json extension from a parameter if present
func stripJSONExtension(c *gin.Context, paramName string) {
	value := c.Param(paramName)
	if strings.HasSuffix(value, ".json") {
		for i, param := range c.Params {
			if param.Key == paramName {
				c.Params[i].Value = strings.TrimSuffix(value, ".json")
				break
			}
		}
	}
}

// requestConfig merges the base64 configuration segment over the server
// config. An undecodable segment is ignored.
func (h *Handler) requestConfig(encoded string) *config.Config {
	if encoded == "" {
		return h.config
	}
	userConfig, err := config.DecodeUserData(encoded)
	if err != nil {
		h.services.Logger.Warnf("[StreamHandler] ignoring configuration segment: %v", err)
		return h.config
	}
	return config.CreateFromUserData(userConfig, h.config)
}

func isSupportedType(kind string) bool {
	for _, t := range constants.SupportedTypes {
		if t == kind {
			return true
		}
	}
	return false
}
