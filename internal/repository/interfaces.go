package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"
)

// QuestionRepository persists questions and their choices. Listing methods
// take now explicitly so visibility is decided by the caller's clock.
type QuestionRepository interface {
	Create(ctx context.Context, q *poll.Question) error
	GetByID(ctx context.Context, id uint) (poll.Question, error)
	// GetPublished returns ErrNotFound for questions that are unpublished or
	// choiceless, so hidden questions are indistinguishable from absent ones.
	GetPublished(ctx context.Context, id uint, now time.Time) (poll.Question, error)
	// ListPublished returns published questions with choices ordered by
	// (pub_date, id) ascending. limit < 0 means no limit.
	ListPublished(ctx context.Context, now time.Time, offset, limit int) ([]poll.Question, int64, error)
	// ListAll returns every question in admin bucket order.
	ListAll(ctx context.Context, now time.Time, offset, limit int) ([]poll.Question, int64, error)
	// Update saves the question fields and reconciles choices against
	// q.Choices: entries with an ID are updated, entries without are created,
	// existing choices absent from q.Choices are deleted.
	Update(ctx context.Context, q poll.Question) error
	// Delete removes the question, its choices and any user votes for it.
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	// CountHidden returns how many questions are unpublished, choiceless, and
	// both, at now.
	CountHidden(ctx context.Context, now time.Time) (unpublished, choiceless, both int64, err error)
}

// VoteRepository is the single writer of UserVote rows and Choice counters.
type VoteRepository interface {
	// ReplaceAll atomically removes every vote the user has cast and applies
	// the given question→choice selections, keeping Choice counters in step.
	// The empty map clears the user's votes. On validation failure nothing is
	// changed. Returns the ids of all questions whose counts changed.
	ReplaceAll(ctx context.Context, userID uuid.UUID, selections map[uint]uint) ([]uint, error)
	VotesByUser(ctx context.Context, userID uuid.UUID) ([]poll.UserVote, error)
	HasVoted(ctx context.Context, userID uuid.UUID) (bool, error)
	CountVotes(ctx context.Context) (int64, error)
	CountVoters(ctx context.Context) (int64, error)
}

// PollStatusRepository stores the single closure-gate row.
type PollStatusRepository interface {
	// Get returns ErrNotFound while no row has been created yet.
	Get(ctx context.Context) (poll.PollStatus, error)
	// Upsert creates the row on first use and updates it afterwards.
	Upsert(ctx context.Context, status poll.PollStatus) (poll.PollStatus, error)
}

type UserRepository interface {
	// Create persists the user together with its profile in one transaction.
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	ListAdmins(ctx context.Context) ([]user.User, error)
	UpdateProfile(ctx context.Context, p user.Profile) error

	CreateSession(ctx context.Context, s *user.Session) error
	GetSessionByID(ctx context.Context, id uuid.UUID) (user.Session, error)
	RevokeSession(ctx context.Context, id uuid.UUID) error
}
