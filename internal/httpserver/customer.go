package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	customersvc "storefront-api/internal/service/customer"
)

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	Me(ctx context.Context, id domain.Identity) (*domain.Customer, error)
	AccessTTLSeconds() int
}

func signupHandler(svc customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customersvc.SignupInput
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		customer, err := svc.Signup(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"customer": customer})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(svc customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		customer, token, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, customersvc.ErrInvalidCredentials) {
				writeError(c, domain.E(domain.KindAuthenticationFailed, "invalid credentials"))
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"customer":    customer,
			"accessToken": token,
			"tokenType":   "Bearer",
			"expiresIn":   svc.AccessTTLSeconds(),
		})
	}
}

func meHandler(svc customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := svc.Me(c.Request.Context(), identityFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer": customer})
	}
}
