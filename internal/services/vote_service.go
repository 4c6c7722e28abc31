package services

import (
	"context"

	"github.com/google/uuid"

	"pollbox/internal/repository"
	pollerrors "pollbox/pkg/errors"
	"pollbox/pkg/logger"
)

// ResultsNotifier is told which questions changed after a successful vote
// mutation so live listeners can refetch. Implemented by the server's hub.
type ResultsNotifier interface {
	ResultsUpdated(questionIDs []uint)
}

// VoteService validates and applies vote submissions. A submission replaces
// the caller's entire vote set: previous votes are retracted and the new
// selections applied inside one repository transaction, so counters and the
// audit trail never diverge.
type VoteService struct {
	votes    repository.VoteRepository
	status   *PollStatusService
	notifier ResultsNotifier
	logger   *logger.Logger
}

func NewVoteService(votes repository.VoteRepository, status *PollStatusService, notifier ResultsNotifier, l *logger.Logger) *VoteService {
	return &VoteService{votes: votes, status: status, notifier: notifier, logger: l}
}

// Submit applies the user's question→choice selections. The empty map is a
// valid submission that clears all of the caller's votes.
func (s *VoteService) Submit(ctx context.Context, userID uuid.UUID, selections map[uint]uint) error {
	if userID == uuid.Nil {
		return pollerrors.ErrUnauthorized
	}

	closed, err := s.status.IsClosed(ctx)
	if err != nil {
		return err
	}
	if closed {
		return pollerrors.ErrPollClosed
	}

	affected, err := s.votes.ReplaceAll(ctx, userID, selections)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.WithContext(ctx).Sugar().Infof("votes replaced: user=%s questions=%v", userID, affected)
	}
	if s.notifier != nil && len(affected) > 0 {
		s.notifier.ResultsUpdated(affected)
	}
	return nil
}

// UserVotes returns the caller's current selections as a question→choice map.
func (s *VoteService) UserVotes(ctx context.Context, userID uuid.UUID) (map[uint]uint, error) {
	if userID == uuid.Nil {
		return nil, pollerrors.ErrUnauthorized
	}
	votes, err := s.votes.VotesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	selections := make(map[uint]uint, len(votes))
	for _, v := range votes {
		selections[v.QuestionID] = v.ChoiceID
	}
	return selections, nil
}

func (s *VoteService) HasVoted(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	return s.votes.HasVoted(ctx, userID)
}
