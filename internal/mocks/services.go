package mocks

import (
	"context"

	"github.com/phrazzld/resumeq/internal/generation"
	"github.com/phrazzld/resumeq/internal/platform/storage"
	"github.com/stretchr/testify/mock"
)

// Rewriter is a mock of generation.Rewriter.
type Rewriter struct {
	mock.Mock
}

var _ generation.Rewriter = (*Rewriter)(nil)

// Rewrite is a mock implementation of generation.Rewriter.Rewrite
func (m *Rewriter) Rewrite(ctx context.Context, req generation.Request) (*generation.Result, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*generation.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// Renderer is a mock of render.Renderer.
type Renderer struct {
	mock.Mock
}

// DOCX is a mock implementation of render.Renderer.DOCX
func (m *Renderer) DOCX(text string) ([]byte, error) {
	args := m.Called(text)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

// PDF is a mock implementation of render.Renderer.PDF
func (m *Renderer) PDF(text string) ([]byte, error) {
	args := m.Called(text)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

// ObjectStore is a mock of storage.ObjectStore. PublicURL is not mocked; it
// returns BaseURL + "/" + path.
type ObjectStore struct {
	mock.Mock
	BaseURL string
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

// Upload is a mock implementation of storage.ObjectStore.Upload
func (m *ObjectStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	args := m.Called(ctx, path, data, contentType)
	return args.Error(0)
}

// Delete is a mock implementation of storage.ObjectStore.Delete
func (m *ObjectStore) Delete(ctx context.Context, paths []string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}

// List is a mock implementation of storage.ObjectStore.List
func (m *ObjectStore) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	args := m.Called(ctx, prefix)
	if objs, ok := args.Get(0).([]storage.Object); ok {
		return objs, args.Error(1)
	}
	return nil, args.Error(1)
}

// PublicURL joins BaseURL and path.
func (m *ObjectStore) PublicURL(path string) string {
	return m.BaseURL + "/" + path
}

// SubscriberTracker is a mock of task.SubscriberTracker.
type SubscriberTracker struct {
	mock.Mock
}

// TrackResumeGenerated is a mock implementation of task.SubscriberTracker.TrackResumeGenerated
func (m *SubscriberTracker) TrackResumeGenerated(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
