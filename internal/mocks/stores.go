package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/store"
	"github.com/stretchr/testify/mock"
)

// GenerationStore is a mock of store.GenerationStore. WithTx returns the
// same mock so expectations cover transactional calls too.
type GenerationStore struct {
	mock.Mock
}

var _ store.GenerationStore = (*GenerationStore)(nil)

// Create is a mock implementation of store.GenerationStore.Create
func (m *GenerationStore) Create(ctx context.Context, generation *domain.Generation) error {
	args := m.Called(ctx, generation)
	return args.Error(0)
}

// GetByID is a mock implementation of store.GenerationStore.GetByID
func (m *GenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Generation, error) {
	args := m.Called(ctx, id)
	if g, ok := args.Get(0).(*domain.Generation); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetForUser is a mock implementation of store.GenerationStore.GetForUser
func (m *GenerationStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Generation, error) {
	args := m.Called(ctx, id, userID)
	if g, ok := args.Get(0).(*domain.Generation); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateStatus is a mock implementation of store.GenerationStore.UpdateStatus
func (m *GenerationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GenerationStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// TransitionStatus is a mock implementation of store.GenerationStore.TransitionStatus
func (m *GenerationStore) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from []domain.GenerationStatus,
	to domain.GenerationStatus,
) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

// Complete is a mock implementation of store.GenerationStore.Complete
func (m *GenerationStore) Complete(ctx context.Context, id uuid.UUID, result domain.GenerationResult) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

// MarkFailed is a mock implementation of store.GenerationStore.MarkFailed
func (m *GenerationStore) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// ListExpired is a mock implementation of store.GenerationStore.ListExpired
func (m *GenerationStore) ListExpired(ctx context.Context, cutoff time.Time) ([]*domain.Generation, error) {
	args := m.Called(ctx, cutoff)
	if gs, ok := args.Get(0).([]*domain.Generation); ok {
		return gs, args.Error(1)
	}
	return nil, args.Error(1)
}

// ClearFileURLs is a mock implementation of store.GenerationStore.ClearFileURLs
func (m *GenerationStore) ClearFileURLs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// WithTx returns m.
func (m *GenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return m
}

// AnalysisStore is a mock of store.AnalysisStore.
type AnalysisStore struct {
	mock.Mock
}

var _ store.AnalysisStore = (*AnalysisStore)(nil)

// GetByID is a mock implementation of store.AnalysisStore.GetByID
func (m *AnalysisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).(*domain.Analysis); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProfileStore is a mock of store.ProfileStore.
type ProfileStore struct {
	mock.Mock
}

var _ store.ProfileStore = (*ProfileStore)(nil)

// GetByID is a mock implementation of store.ProfileStore.GetByID
func (m *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
