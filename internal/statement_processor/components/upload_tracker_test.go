package components

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUploadTracker_MarkProcessing(t *testing.T) {
	request := testUploadRequest()

	t.Run("existing record", func(t *testing.T) {
		repo := &MockUploadRepo{}
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusProcessing, "").Return(nil).Once()

		assert.NoError(t, NewUploadTracker(repo, slog.Default()).MarkProcessing(context.Background(), request))
		repo.AssertExpectations(t)
	})

	t.Run("missing record is created", func(t *testing.T) {
		repo := &MockUploadRepo{}
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusProcessing, "").
			Return(upload.ErrRecordNotFound{UploadID: request.UploadID}).Once()
		repo.On("Create", mock.Anything, mock.MatchedBy(func(r *upload.Record) bool {
			return r.UploadID == request.UploadID && r.CardID == request.CardID && r.UserID == request.UserID &&
				r.Status == shared.UploadStatusProcessing && r.ProcessedAt == nil
		})).Return(nil).Once()

		assert.NoError(t, NewUploadTracker(repo, slog.Default()).MarkProcessing(context.Background(), request))
		repo.AssertExpectations(t)
	})

	t.Run("update error", func(t *testing.T) {
		repoErr := errors.New("mongo down")
		repo := &MockUploadRepo{}
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusProcessing, "").Return(repoErr).Once()

		assert.ErrorIs(t, NewUploadTracker(repo, slog.Default()).MarkProcessing(context.Background(), request), repoErr)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUploadTracker_RecordFailure(t *testing.T) {
	request := testUploadRequest()
	reason := shared.FailureReasonUnsupportedFormat

	t.Run("existing record", func(t *testing.T) {
		repo := &MockUploadRepo{}
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusFailed, string(reason)).Return(nil).Once()

		err := NewUploadTracker(repo, slog.Default()).RecordFailure(context.Background(), request, shared.UploadStatusFailed, reason)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("missing record is created terminal", func(t *testing.T) {
		repo := &MockUploadRepo{}
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusRejected, string(shared.FailureReasonDuplicateStatement)).
			Return(upload.ErrRecordNotFound{UploadID: request.UploadID}).Once()
		repo.On("Create", mock.Anything, mock.MatchedBy(func(r *upload.Record) bool {
			return r.Status == shared.UploadStatusRejected &&
				r.FailureReason == string(shared.FailureReasonDuplicateStatement) &&
				r.ProcessedAt != nil
		})).Return(nil).Once()

		err := NewUploadTracker(repo, slog.Default()).RecordFailure(context.Background(), request, shared.UploadStatusRejected, shared.FailureReasonDuplicateStatement)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("concurrent create falls back to update", func(t *testing.T) {
		repo := &MockUploadRepo{}
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusFailed, string(reason)).
			Return(upload.ErrRecordNotFound{UploadID: request.UploadID}).Once()
		repo.On("Create", mock.Anything, mock.Anything).Return(upload.ErrDuplicateRecord{UploadID: request.UploadID}).Once()
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusFailed, string(reason)).Return(nil).Once()

		err := NewUploadTracker(repo, slog.Default()).RecordFailure(context.Background(), request, shared.UploadStatusFailed, reason)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("create error", func(t *testing.T) {
		repoErr := errors.New("write failed")
		repo := &MockUploadRepo{}
		repo.On("UpdateStatus", mock.Anything, request.UploadID, shared.UploadStatusFailed, string(reason)).
			Return(upload.ErrRecordNotFound{UploadID: request.UploadID}).Once()
		repo.On("Create", mock.Anything, mock.Anything).Return(repoErr).Once()

		err := NewUploadTracker(repo, slog.Default()).RecordFailure(context.Background(), request, shared.UploadStatusFailed, reason)
		assert.ErrorIs(t, err, repoErr)
	})
}
