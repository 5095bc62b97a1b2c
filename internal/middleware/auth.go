package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/rs/zerolog/log"
)

const principalKey = "principal"

// TokenVerifier turns a raw bearer token into the authenticated principal.
type TokenVerifier interface {
	Verify(raw string) (*model.Principal, error)
}

// BearerToken reads the token from the Authorization header, falling back to
// the `token` query parameter used by websocket clients.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Token requerido"})
			return
		}
		p, err := verifier.Verify(raw)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("Authenticate: invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Token inválido o expirado"})
			return
		}
		SetPrincipal(c, *p)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "No autenticado"})
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "No tienes permisos para esta acción"})
	}
}

// SystemAuth guards endpoints called by external automation with a shared key.
func SystemAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			log.Error().Msg("SystemAuth: SYSTEM_API_KEY is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "SYSTEM_API_KEY no configurada"})
			return
		}
		provided := c.GetHeader("X-System-Api-Key")
		if provided == "" {
			provided = c.Query("apikey")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "API key inválida"})
			return
		}
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p model.Principal) {
	c.Set(principalKey, p)
}

func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}
