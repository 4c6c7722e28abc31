package repository

import (
	"gorm.io/gorm"
)

type Repositories interface {
	Questions() QuestionRepository
	Votes() VoteRepository
	PollStatus() PollStatusRepository
	Users() UserRepository
}

type repositories struct {
	questions  QuestionRepository
	votes      VoteRepository
	pollStatus PollStatusRepository
	users      UserRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return &repositories{
		questions:  newQuestionRepository(db),
		votes:      newVoteRepository(db),
		pollStatus: newPollStatusRepository(db),
		users:      newUserRepository(db),
	}
}

func (r *repositories) Questions() QuestionRepository    { return r.questions }
func (r *repositories) Votes() VoteRepository            { return r.votes }
func (r *repositories) PollStatus() PollStatusRepository { return r.pollStatus }
func (r *repositories) Users() UserRepository            { return r.users }
