package httpserver

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
)

type identityService interface {
	Resolve(ctx context.Context, bearer string) (domain.Identity, error)
}

const identityKey = "identity"

// resolveIdentity turns the Authorization header into a request-scoped
// Identity. A missing header yields Anonymous; a present-but-invalid
// credential aborts with AuthenticationFailed so handlers never see it.
func resolveIdentity(svc identityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		bearer := bearerToken(header)
		if header != "" && bearer == "" {
			// A header that is present but not a bearer credential is a
			// failed authentication, not anonymity.
			writeError(c, domain.E(domain.KindAuthenticationFailed, "malformed authorization header"))
			c.Abort()
			return
		}
		id, err := svc.Resolve(c.Request.Context(), bearer)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.AnonymousIdentity()
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
