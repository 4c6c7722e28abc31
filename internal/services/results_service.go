package services

import (
	"context"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/repository"
)

type ChoiceResult struct {
	ChoiceText string  `json:"choice_text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type QuestionResult struct {
	QuestionID   uint           `json:"question_id"`
	QuestionText string         `json:"question_text"`
	PubDate      time.Time      `json:"pub_date"`
	TotalVotes   int64          `json:"total_votes"`
	Choices      []ChoiceResult `json:"choices_results"`
}

type ResultsSummary struct {
	TotalQuestions int64            `json:"total_questions"`
	TotalVotes     int64            `json:"total_votes_all_questions"`
	Questions      []QuestionResult `json:"questions_results"`
}

// ComputeResults tallies one question from its denormalized counters. When no
// votes have been cast every percentage is exactly 0.0; percentages otherwise
// come from plain floating-point division and are not renormalized to 100.
func ComputeResults(q poll.Question) QuestionResult {
	result := QuestionResult{
		QuestionID:   q.ID,
		QuestionText: q.QuestionText,
		PubDate:      q.PubDate,
		Choices:      make([]ChoiceResult, 0, len(q.Choices)),
	}
	for _, c := range q.Choices {
		result.TotalVotes += c.Votes
	}
	for _, c := range q.Choices {
		cr := ChoiceResult{ChoiceText: c.ChoiceText, Votes: c.Votes}
		if result.TotalVotes > 0 {
			cr.Percentage = float64(c.Votes) / float64(result.TotalVotes) * 100
		}
		result.Choices = append(result.Choices, cr)
	}
	return result
}

// ComputeSummary aggregates an already-ordered, already-filtered question set.
// Visibility is the caller's decision; the aggregation itself is agnostic.
func ComputeSummary(questions []poll.Question) ResultsSummary {
	summary := ResultsSummary{
		TotalQuestions: int64(len(questions)),
		Questions:      make([]QuestionResult, 0, len(questions)),
	}
	for _, q := range questions {
		qr := ComputeResults(q)
		summary.TotalVotes += qr.TotalVotes
		summary.Questions = append(summary.Questions, qr)
	}
	return summary
}

type ResultsService struct {
	questions repository.QuestionRepository
	clock     func() time.Time
}

func NewResultsService(questions repository.QuestionRepository) *ResultsService {
	return &ResultsService{questions: questions, clock: time.Now}
}

// Summary computes results over the visibility-appropriate question set:
// every question for admins, published-with-choices for everyone else.
func (s *ResultsService) Summary(ctx context.Context, includeHidden bool) (ResultsSummary, error) {
	now := s.clock()
	var (
		questions []poll.Question
		err       error
	)
	if includeHidden {
		questions, _, err = s.questions.ListAll(ctx, now, 0, -1)
	} else {
		questions, _, err = s.questions.ListPublished(ctx, now, 0, -1)
	}
	if err != nil {
		return ResultsSummary{}, err
	}
	return ComputeSummary(questions), nil
}
