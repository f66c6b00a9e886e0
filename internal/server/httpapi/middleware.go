package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const credentialKey = "kidsbank.credential"

// extractBearerToken returns the token of an "Authorization: Bearer <t>"
// header, or "" when the header is absent or uses another scheme.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], strings.TrimSpace(common.BearerPrefix)) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// credential resolves the bearer token into a Credential. A missing,
// malformed or expired token yields the empty credential; the request
// proceeds and the access rules decide.
func (h *Handler) credential() gin.HandlerFunc {
	return func(c *gin.Context) {
		var cred auth.Credential
		if token := extractBearerToken(c); token != "" {
			parsed, err := h.tokens.Parse(token)
			if err != nil {
				h.log.Debug(c.Request.Context(), "ignoring bearer token", "error", err)
			} else {
				cred = parsed
			}
		}
		c.Set(credentialKey, cred)
		c.Next()
	}
}

func credentialFrom(c *gin.Context) auth.Credential {
	if v, ok := c.Get(credentialKey); ok {
		if cred, ok := v.(auth.Credential); ok {
			return cred
		}
	}
	return auth.Credential{}
}

// observe logs each request and feeds the HTTP metrics. Routes are labelled
// by their pattern, unmatched paths by "unmatched".
func (h *Handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		h.metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		h.metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		h.log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
		)
	}
}
