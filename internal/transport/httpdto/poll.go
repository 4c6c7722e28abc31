package httpdto

import "time"

// ChoiceDTO represents a poll choice in API responses.
type ChoiceDTO struct {
	ID         uint   `json:"id"`
	ChoiceText string `json:"choice_text"`
	Votes      int64  `json:"votes"`
}

// QuestionDTO represents a poll question in API responses.
type QuestionDTO struct {
	ID           uint        `json:"id"`
	QuestionText string      `json:"question_text"`
	PubDate      time.Time   `json:"pub_date"`
	IsPublished  bool        `json:"is_published"`
	Choices      []ChoiceDTO `json:"choices"`
}

// QuestionPageResponse is the paginated question listing.
type QuestionPageResponse struct {
	Count      int64         `json:"count"`
	Next       *int          `json:"next"`
	Previous   *int          `json:"previous"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	PageSize   int           `json:"page_size"`
	Results    []QuestionDTO `json:"results"`
}

// ChoiceUpsert carries one choice in a create or update request. A zero or
// omitted ID means a new choice; choices left out of an update are removed.
type ChoiceUpsert struct {
	ID         uint   `json:"id,omitempty"`
	ChoiceText string `json:"choice_text" binding:"required"`
	Votes      int64  `json:"votes"`
}

// QuestionUpsertRequest is used for admin question create and update.
type QuestionUpsertRequest struct {
	QuestionText string         `json:"question_text" binding:"required"`
	PubDate      time.Time      `json:"pub_date" binding:"required"`
	Choices      []ChoiceUpsert `json:"choices"`
}

// VoteRequest is used for POST /v1/votes. The votes map replaces the caller's
// entire vote set; an empty map clears every vote the caller holds.
type VoteRequest struct {
	Votes map[uint]uint `json:"votes"`
}

// VoteResponse echoes the caller's selections after a submission.
type VoteResponse struct {
	Votes map[uint]uint `json:"votes"`
}

// PollStatusResponse is returned by the poll status endpoints.
type PollStatusResponse struct {
	IsClosed bool       `json:"is_closed"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
	ClosedBy string     `json:"closed_by,omitempty"`
}
