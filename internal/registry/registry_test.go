package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/resource-gateway/internal/domain"
)

type fakeResource struct {
	desc    domain.ResourceDescriptor
	content string
	lastURI string
}

func (f *fakeResource) Describe() domain.ResourceDescriptor {
	return f.desc
}

func (f *fakeResource) Read(_ context.Context, uri string) (string, error) {
	f.lastURI = uri
	return f.content, nil
}

func newFake(name, uri, content string) *fakeResource {
	return &fakeResource{
		desc:    domain.ResourceDescriptor{Name: name, URI: uri, MimeType: "text/plain"},
		content: content,
	}
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newFake("first", "data://a/1", "one"))
	reg.Register(newFake("second", "data://b/2", "two"))

	descs := reg.List()
	require.Len(t, descs, 2)
	require.Equal(t, "first", descs[0].Name)
	require.Equal(t, "second", descs[1].Name)
}

func TestRegistry_ReadExactMatch(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newFake("audit", "logs://audit/recent", "entries"))

	content, desc, err := reg.Read(context.Background(), "logs://audit/recent")
	require.NoError(t, err)
	require.Equal(t, "entries", content)
	require.Equal(t, "logs://audit/recent", desc.URI)
}

func TestRegistry_ReadPrefixMatch(t *testing.T) {
	reg := New(zap.NewNop())
	res := newFake("audit", "logs://audit/recent", "entries")
	reg.Register(res)

	content, _, err := reg.Read(context.Background(), "logs://audit/anything")
	require.NoError(t, err)
	require.Equal(t, "entries", content)
	// the resource sees the requested URI, not its registered one
	require.Equal(t, "logs://audit/anything", res.lastURI)
}

func TestRegistry_ExactMatchWinsOverPrefix(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newFake("catch-all", "logs://audit/recent", "prefix"))
	reg.Register(newFake("exact", "logs://audit/errors", "exact"))

	content, desc, err := reg.Read(context.Background(), "logs://audit/errors")
	require.NoError(t, err)
	require.Equal(t, "exact", content)
	require.Equal(t, "exact", desc.Name)
}

func TestRegistry_ReadUnknown(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newFake("audit", "logs://audit/recent", "entries"))

	_, _, err := reg.Read(context.Background(), "postgres://tables/users")
	require.ErrorIs(t, err, ErrNotRegistered)

	_, _, err = reg.Read(context.Background(), "not a uri")
	require.ErrorIs(t, err, ErrNotRegistered)
}
