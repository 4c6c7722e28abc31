package poll

import (
	"time"

	"github.com/google/uuid"
)

// Question is a poll question. Choices are owned rows and are removed with it.
type Question struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	QuestionText string    `gorm:"size:200;not null" json:"question_text"`
	PubDate      time.Time `gorm:"not null;index" json:"pub_date"`
	Choices      []Choice  `gorm:"constraint:OnDelete:CASCADE" json:"choices"`
}

// Choice carries a denormalized vote counter. The counter equals the number of
// UserVote rows referencing the choice; both are written only inside the vote
// replacement transaction.
type Choice struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	ChoiceText string `gorm:"size:200;not null" json:"choice_text"`
	Votes      int64  `gorm:"not null;default:0" json:"votes"`
}

// UserVote is the audit trail row behind the Choice counters. The unique index
// enforces at most one vote per user per question; concurrent replacements for
// the same user surface as a unique violation and one of them loses.
type UserVote struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_question" json:"user_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_user_question" json:"question_id"`
	ChoiceID   uint      `gorm:"not null;index" json:"choice_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// PollStatus is the process-wide closure gate, stored as a single row that is
// created lazily on the first close or reopen.
type PollStatus struct {
	ID       uint       `gorm:"primarykey" json:"-"`
	IsClosed bool       `gorm:"not null;default:false" json:"is_closed"`
	ClosedAt *time.Time `json:"closed_at"`
	ClosedBy *uuid.UUID `gorm:"type:uuid" json:"closed_by"`
}
