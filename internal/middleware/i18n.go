// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := "en"

		// Handle headers like "am-ET,am;q=0.9,en;q=0.8"
		if header := c.GetHeader("Accept-Language"); header != "" {
			first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			switch strings.ToLower(first) {
			case "am", "am-et", "am_et":
				lang = "am"
			default:
				lang = "en"
			}
		}

		c.Set("lang", lang)
		c.Next()
	}
}
