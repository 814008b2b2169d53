package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursecraft-api/internal/middleware"
)

func sessionIDFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return ""
	}
	id, ok := value.(string)
	if !ok {
		return ""
	}
	return id
}
