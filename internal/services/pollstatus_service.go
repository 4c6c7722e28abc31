package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
	"pollbox/internal/repository"
	pollerrors "pollbox/pkg/errors"
)

// PollStatusService is the process-wide closure gate. The backing row is
// created lazily on the first Close or Reopen; until then the poll reads as
// open. Who may flip the gate is the caller's concern, not this service's.
type PollStatusService struct {
	repo repository.PollStatusRepository
}

func NewPollStatusService(repo repository.PollStatusRepository) *PollStatusService {
	return &PollStatusService{repo: repo}
}

func (s *PollStatusService) Status(ctx context.Context) (poll.PollStatus, error) {
	status, err := s.repo.Get(ctx)
	if errors.Is(err, pollerrors.ErrNotFound) {
		return poll.PollStatus{}, nil
	}
	if err != nil {
		return poll.PollStatus{}, err
	}
	return status, nil
}

func (s *PollStatusService) IsClosed(ctx context.Context) (bool, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.IsClosed, nil
}

// Close flips the gate shut. Closing an already-closed poll succeeds and keeps
// the original timestamp and closer.
func (s *PollStatusService) Close(ctx context.Context, by uuid.UUID) (poll.PollStatus, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return poll.PollStatus{}, err
	}
	if status.IsClosed {
		return status, nil
	}
	now := time.Now()
	status.IsClosed = true
	status.ClosedAt = &now
	status.ClosedBy = &by
	return s.repo.Upsert(ctx, status)
}

// Reopen clears the gate. Reopening an open poll is a no-op that succeeds.
func (s *PollStatusService) Reopen(ctx context.Context, _ uuid.UUID) (poll.PollStatus, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return poll.PollStatus{}, err
	}
	if !status.IsClosed && status.ID == 0 {
		return status, nil
	}
	status.IsClosed = false
	status.ClosedAt = nil
	status.ClosedBy = nil
	return s.repo.Upsert(ctx, status)
}
