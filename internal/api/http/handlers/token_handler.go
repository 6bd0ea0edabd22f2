package handlers

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resource-gateway/internal/api/dto"
	"github.com/spec-kit/resource-gateway/internal/auth"
	"github.com/spec-kit/resource-gateway/internal/domain"
	"github.com/spec-kit/resource-gateway/internal/service"
	apperrors "github.com/spec-kit/resource-gateway/pkg/util"
)

// TokenHandler exposes the token issuance endpoint, the only route outside
// the access gate besides the health probes.
type TokenHandler struct {
	tokens  *service.TokenService
	clients *auth.ClientAuthenticator
}

// NewTokenHandler constructs the handler.
func NewTokenHandler(tokens *service.TokenService, clients *auth.ClientAuthenticator) *TokenHandler {
	return &TokenHandler{tokens: tokens, clients: clients}
}

// Token handles POST /oauth/token. Client authentication via HTTP Basic is
// optional: when the header is present it must match the configured client.
func (h *TokenHandler) Token(c *fiber.Ctx) error {
	if clientID, clientSecret, ok := basicCredentials(c); ok {
		if !h.clients.Verify(clientID, clientSecret) {
			return apperrors.NewUnauthorized("invalid client")
		}
	}

	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	grantType := domain.GrantType(req.GrantType)
	switch grantType {
	case domain.GrantTypePassword:
		if req.Username == "" || req.Password == "" {
			return apperrors.NewValidationError("username and password required", nil)
		}
	case domain.GrantTypeRefresh:
		if req.RefreshToken == "" {
			return apperrors.NewValidationError("refresh_token required", nil)
		}
	}

	pair, err := h.tokens.Grant(c.Context(), service.GrantRequest{
		GrantType:    grantType,
		Username:     req.Username,
		Password:     req.Password,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return mapGrantError(err)
	}

	return c.JSON(dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
	})
}

// mapGrantError keeps the client-facing detail coarse: bad request shape vs
// authentication failure vs server error.
func mapGrantError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnsupportedGrantType):
		return apperrors.NewUnsupportedGrantType()
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("invalid credentials")
	case errors.Is(err, service.ErrRefreshExpired):
		return apperrors.NewUnauthorized("refresh token expired")
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrWrongTokenKind):
		return apperrors.NewUnauthorized("invalid token")
	default:
		return apperrors.MapError(err)
	}
}

func basicCredentials(c *fiber.Ctx) (string, string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Basic ") {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return "", "", false
	}
	id, secret, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return id, secret, true
}
