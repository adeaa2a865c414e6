package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusFor maps error kinds to wire statuses. Deployments that prefer
// masking AuthorizationDenied as 404 flip the one entry here; the kind
// in the body stays distinct either way.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAuthenticationRequired, domain.KindAuthenticationFailed:
		return http.StatusUnauthorized
	case domain.KindAuthorizationDenied:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindOperationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == "" {
		// Truly unexpected fault in an external collaborator.
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{
			Kind:    "internal",
			Message: "internal server error",
		}})
		_ = c.Error(err)
		return
	}
	c.JSON(statusFor(kind), gin.H{"error": errorBody{
		Kind:    string(kind),
		Message: err.Error(),
	}})
}
