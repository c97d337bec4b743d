package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Tharoon321/go-events-api/utils"
)

// APIKeyHeader carries the shared secret on write requests.
const APIKeyHeader = "x-api-key"

var ErrUnauthorized = errors.New("unauthorized")

// Authenticator decides whether a request may proceed.
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) error

func (f AuthenticatorFunc) Authenticate(r *http.Request) error { return f(r) }

// APIKeyAuthenticator compares the x-api-key header with a static key, or
// with a bcrypt hash when Hash is set.
type APIKeyAuthenticator struct {
	Key  string
	Hash string
}

func (a APIKeyAuthenticator) Authenticate(r *http.Request) error {
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return ErrUnauthorized
	}
	if a.Hash != "" {
		if err := utils.CheckKey(a.Hash, key); err != nil {
			return ErrUnauthorized
		}
		return nil
	}
	if a.Key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.Key)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// JWTAuthenticator verifies an "Authorization: Bearer <token>" header signed
// with Secret. A non-empty Role additionally requires that role claim.
type JWTAuthenticator struct {
	Secret string
	Role   string
}

func (a JWTAuthenticator) Authenticate(r *http.Request) error {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ErrUnauthorized
	}

	_, role, err := utils.ParseJWT(a.Secret, parts[1])
	if err != nil {
		return ErrUnauthorized
	}
	if a.Role != "" && role != a.Role {
		return ErrUnauthorized
	}
	return nil
}

// Auth rejects requests the authenticator does not accept with 401.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.Authenticate(c.Request); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
