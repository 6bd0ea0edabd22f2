package registry

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/resource-gateway/internal/domain"
)

// ErrNotRegistered is returned when no resource matches a requested URI.
var ErrNotRegistered = errors.New("resource not registered")

// Resource is a named, addressable piece of readable data.
type Resource interface {
	Describe() domain.ResourceDescriptor
	Read(ctx context.Context, uri string) (string, error)
}

// Registry holds registered resources and resolves read requests. Resources
// are registered at startup; lookups may run concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	resources []Resource
	logger    *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a resource to the registry.
func (r *Registry) Register(res Resource) {
	desc := res.Describe()
	r.mu.Lock()
	r.resources = append(r.resources, res)
	r.mu.Unlock()
	r.logger.Info("resource registered",
		zap.String("name", desc.Name),
		zap.String("uri", desc.URI))
}

// List returns descriptors for all registered resources, in registration order.
func (r *Registry) List() []domain.ResourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ResourceDescriptor, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res.Describe())
	}
	return out
}

// Read resolves a URI to a resource and reads its content. An exact URI
// match wins; otherwise the first resource sharing the scheme://host base of
// the requested URI serves it.
func (r *Registry) Read(ctx context.Context, uri string) (string, domain.ResourceDescriptor, error) {
	r.mu.RLock()
	resources := append([]Resource{}, r.resources...)
	r.mu.RUnlock()

	for _, res := range resources {
		if res.Describe().URI == uri {
			content, err := res.Read(ctx, uri)
			return content, res.Describe(), err
		}
	}

	if base, ok := baseOf(uri); ok {
		for _, res := range resources {
			if strings.HasPrefix(res.Describe().URI, base) {
				content, err := res.Read(ctx, uri)
				return content, res.Describe(), err
			}
		}
	}

	r.logger.Warn("resource not found", zap.String("uri", uri))
	return "", domain.ResourceDescriptor{}, ErrNotRegistered
}

func baseOf(uri string) (string, bool) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" {
		return "", false
	}
	return parsed.Scheme + "://" + parsed.Host, true
}
