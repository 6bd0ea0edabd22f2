package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/resource-gateway/internal/domain"
	apperrors "github.com/spec-kit/resource-gateway/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller for the request's lifetime.
type Principal struct {
	Subject string
}

// Middleware is the access gate: it validates bearer access tokens on every
// protected route before the resource handlers run.
type Middleware struct {
	codec  *TokenCodec
	logger *zap.Logger
}

// NewMiddleware constructs the gate.
func NewMiddleware(codec *TokenCodec, logger *zap.Logger) *Middleware {
	return &Middleware{codec: codec, logger: logger}
}

// Handle enforces authentication for protected routes. The precise rejection
// reason stays server-side; the caller only learns the request was
// unauthenticated.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing bearer token")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	token, err := m.codec.Decode(parts[1])
	if err != nil {
		m.logger.Debug("bearer token rejected",
			zap.String("path", c.Path()),
			zap.Error(err))
		return apperrors.NewUnauthorized("authentication required")
	}

	if token.Kind != domain.TokenKindAccess {
		m.logger.Debug("non-access token presented",
			zap.String("path", c.Path()),
			zap.String("kind", string(token.Kind)))
		return apperrors.NewUnauthorized("authentication required")
	}

	c.Locals(principalKey, &Principal{Subject: token.Subject})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated subject.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
