package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/domain"
	"github.com/phrazzld/resumeq/internal/mocks"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const publicBase = "https://files.example.com/storage/v1/object/public/resumes/"

func expiredGeneration(userID uuid.UUID, name string) *domain.Generation {
	return &domain.Generation{
		ID:      uuid.New(),
		UserID:  userID,
		Status:  domain.GenerationStatusCompleted,
		DocxURL: publicBase + userID.String() + "/" + name + ".docx",
		PDFURL:  publicBase + userID.String() + "/" + name + ".pdf",
	}
}

func newTestSweeper(t *testing.T, gens *mocks.GenerationStore, jobs Enqueuer) *RetentionSweeper {
	t.Helper()
	s, err := NewRetentionSweeper(gens, nil, jobs, DefaultRetentionConfig(), testLogger())
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

// Three expired generations for two users produce exactly two deletion jobs,
// in first-seen order, each carrying all of that user's paths.
func TestRetentionSweeper_GroupsByUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(t)

	alice, bob := uuid.New(), uuid.New()
	g1 := expiredGeneration(alice, "g1")
	g2 := expiredGeneration(bob, "g2")
	g3 := expiredGeneration(alice, "g3")
	g3.PDFURL = ""

	gens := &mocks.GenerationStore{}
	cutoff := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	gens.On("ListExpired", mock.Anything, cutoff).Return([]*domain.Generation{g1, g2, g3}, nil)
	gens.On("ClearFileURLs", mock.Anything, []uuid.UUID{g1.ID, g2.ID, g3.ID}).Return(int64(3), nil)

	res, err := newTestSweeper(t, gens, m).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SweepResult{Expired: 3, JobsEnqueued: 2, Cleared: 3}, res)
	gens.AssertExpectations(t)

	stats, err := m.GetQueueStats(ctx, queue.FileDeletion)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Ready)

	first, err := m.GetNextJob(ctx, queue.FileDeletion)
	require.NoError(t, err)
	firstPayload, err := FileDeletionQueue.Decode(first)
	require.NoError(t, err)
	assert.Equal(t, domain.FileDeletionJob{
		UserID: alice.String(),
		FilePaths: []string{
			alice.String() + "/g1.docx",
			alice.String() + "/g1.pdf",
			alice.String() + "/g3.docx",
		},
		Reason: domain.RetentionReason,
	}, firstPayload)

	second, err := m.GetNextJob(ctx, queue.FileDeletion)
	require.NoError(t, err)
	secondPayload, err := FileDeletionQueue.Decode(second)
	require.NoError(t, err)
	assert.Equal(t, bob.String(), secondPayload.UserID)
	assert.Len(t, secondPayload.FilePaths, 2)
}

func TestRetentionSweeper_NothingExpired(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	gens := &mocks.GenerationStore{}
	gens.On("ListExpired", mock.Anything, mock.Anything).Return([]*domain.Generation{}, nil)

	res, err := newTestSweeper(t, gens, m).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Expired)
	gens.AssertNotCalled(t, "ClearFileURLs", mock.Anything, mock.Anything)
}

// failingEnqueuer rejects every job.
type failingEnqueuer struct{}

func (failingEnqueuer) AddJob(ctx context.Context, q queue.Name, payload any, opts queue.Options) (*queue.Job, error) {
	return nil, errors.New("redis unavailable")
}

func TestRetentionSweeper_EnqueueFailureKeepsURLs(t *testing.T) {
	t.Parallel()

	gens := &mocks.GenerationStore{}
	gens.On("ListExpired", mock.Anything, mock.Anything).
		Return([]*domain.Generation{expiredGeneration(uuid.New(), "g1")}, nil)

	_, err := newTestSweeper(t, gens, failingEnqueuer{}).Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable")
	gens.AssertNotCalled(t, "ClearFileURLs", mock.Anything, mock.Anything)
}

func TestRetentionSweeper_ListFailure(t *testing.T) {
	t.Parallel()

	gens := &mocks.GenerationStore{}
	gens.On("ListExpired", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := newTestSweeper(t, gens, newTestManager(t)).Sweep(context.Background())
	assert.Error(t, err)
}

func TestRetentionSweeper_ClearsInTransaction(t *testing.T) {
	t.Parallel()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	g := expiredGeneration(uuid.New(), "g1")

	t.Run("commit", func(t *testing.T) {
		gens := &mocks.GenerationStore{}
		gens.On("ListExpired", mock.Anything, mock.Anything).Return([]*domain.Generation{g}, nil)
		gens.On("ClearFileURLs", mock.Anything, []uuid.UUID{g.ID}).Return(int64(1), nil)

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		s, err := NewRetentionSweeper(gens, db, newTestManager(t), DefaultRetentionConfig(), testLogger())
		require.NoError(t, err)
		res, err := s.Sweep(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Cleared)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		gens := &mocks.GenerationStore{}
		gens.On("ListExpired", mock.Anything, mock.Anything).Return([]*domain.Generation{g}, nil)
		gens.On("ClearFileURLs", mock.Anything, mock.Anything).Return(int64(0), errors.New("update failed"))

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		s, err := NewRetentionSweeper(gens, db, newTestManager(t), DefaultRetentionConfig(), testLogger())
		require.NoError(t, err)
		_, err = s.Sweep(context.Background())
		assert.Error(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestRetentionSweeper_RunSweepsAtStartup(t *testing.T) {
	t.Parallel()

	gens := &mocks.GenerationStore{}
	called := make(chan struct{}, 1)
	gens.On("ListExpired", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case called <- struct{}{}:
			default:
			}
		}).
		Return([]*domain.Generation{}, nil)

	s, err := NewRetentionSweeper(gens, nil, newTestManager(t), RetentionConfig{Months: 6, Interval: time.Hour}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("startup sweep did not run")
	}
	cancel()
	<-done
}

func TestNewRetentionSweeper_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewRetentionSweeper(nil, nil, newTestManager(t), DefaultRetentionConfig(), testLogger())
	assert.ErrorIs(t, err, ErrNilStore)

	_, err = NewRetentionSweeper(&mocks.GenerationStore{}, nil, nil, DefaultRetentionConfig(), testLogger())
	assert.ErrorIs(t, err, ErrNilQueue)

	s, err := NewRetentionSweeper(&mocks.GenerationStore{}, nil, newTestManager(t), RetentionConfig{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultRetentionConfig(), s.config)
}
