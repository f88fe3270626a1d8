// Package controller provides the HTTP handlers of the dispatch API.
package controller

import (
	"github.com/dispatchhub/dispatch/web/locale"

	"github.com/gin-gonic/gin"
)

// BaseController provides common functionality for all controllers.
type BaseController struct{}

// I18nWeb retrieves a message in the language picked for the current request.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.LocalizeParams(locale.FromContext(c), name, params...)
}
