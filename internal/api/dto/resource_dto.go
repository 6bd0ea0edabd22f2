package dto

import "github.com/spec-kit/resource-gateway/internal/domain"

// ResourceListResponse wraps the registry listing.
type ResourceListResponse struct {
	Resources []domain.ResourceDescriptor `json:"resources"`
}
