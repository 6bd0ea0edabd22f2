package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/resource-gateway/internal/api/dto"
	"github.com/spec-kit/resource-gateway/internal/auth"
	"github.com/spec-kit/resource-gateway/internal/events"
	"github.com/spec-kit/resource-gateway/internal/registry"
	apperrors "github.com/spec-kit/resource-gateway/pkg/util"
)

// ResourcesHandler exposes the protected resource registry routes. Requests
// only reach it once the access gate has attached a principal.
type ResourcesHandler struct {
	registry   *registry.Registry
	dispatcher events.Dispatcher
}

// NewResourcesHandler constructs the handler.
func NewResourcesHandler(reg *registry.Registry, dispatcher events.Dispatcher) *ResourcesHandler {
	return &ResourcesHandler{registry: reg, dispatcher: dispatcher}
}

// List handles GET /resources.
func (h *ResourcesHandler) List(c *fiber.Ctx) error {
	return c.JSON(dto.ResourceListResponse{Resources: h.registry.List()})
}

// Content handles GET /resources/content?uri=...
func (h *ResourcesHandler) Content(c *fiber.Ctx) error {
	uri := c.Query("uri")
	if uri == "" {
		return apperrors.NewValidationError("uri query parameter required", nil)
	}

	content, desc, err := h.registry.Read(c.Context(), uri)
	if err != nil {
		if errors.Is(err, registry.ErrNotRegistered) {
			return apperrors.NewNotFound("resource", map[string]any{"uri": uri})
		}
		return apperrors.MapError(err)
	}

	h.publishRead(c, uri)

	c.Set(fiber.HeaderContentType, desc.MimeType)
	return c.SendString(content)
}

func (h *ResourcesHandler) publishRead(c *fiber.Ctx, uri string) {
	if h.dispatcher == nil {
		return
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return
	}
	_ = h.dispatcher.Publish(c.Context(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventResourceRead,
		Subject:   principal.Subject,
		Timestamp: c.Context().Time(),
		Payload:   events.ResourceReadPayload{URI: uri},
	})
}
