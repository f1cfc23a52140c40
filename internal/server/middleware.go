package server

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/observability/obscontext"
	"github.com/agrilink/agrilink/pkg/validation"
	"github.com/gin-gonic/gin"
)

const (
	contextIdentityKey    = "identity"
	contextLotPublicIDKey = "lot_public_id"
	maxJSONBodyBytes      = 1 << 20
)

// AuthRequired verifies the bearer access token and stores the caller's identity.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextIdentityKey, *identity)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), "user", identity.ID.String()))
		c.Next()
	}
}

// authorize gates a route on a casbin policy for the authenticated caller's role.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), identity, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func identityFromContext(c *gin.Context) (authdomain.Identity, bool) {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return authdomain.Identity{}, false
	}
	identity, ok := value.(authdomain.Identity)
	return identity, ok && identity.ID != 0
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// CORS answers preflight requests and echoes allowed origins. "*" allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[strings.TrimRight(origin, "/")]; ok || allowAll {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Request-Id")
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Expose-Headers", "X-Request-Id, Retry-After, Content-Disposition")
			}
		}
		if c.Request.Method == http.MethodOptions && origin != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// bindJSON decodes and validates the request body into T.
func bindJSON[T any](c *gin.Context) (T, bool) {
	var zero T
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBodyBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return zero, false
	}
	res := validation.DecodeJSON[T](body)
	if !res.OK() {
		AbortWithError(c, res.Err())
		return zero, false
	}
	return res.Value, true
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
