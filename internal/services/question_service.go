package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/repository"
	pollerrors "pollbox/pkg/errors"
)

const maxTextLength = 200

type ChoiceInput struct {
	ID         uint
	ChoiceText string
	Votes      int64
}

type QuestionInput struct {
	QuestionText string
	PubDate      time.Time
	Choices      []ChoiceInput
}

// PagedQuestions mirrors the paginator shape the frontend consumes.
type PagedQuestions struct {
	Count      int64
	Next       *int
	Previous   *int
	Page       int
	TotalPages int
	PageSize   int
	Results    []poll.Question
}

type QuestionService struct {
	questions repository.QuestionRepository
	notifier  ResultsNotifier
	clock     func() time.Time
}

func NewQuestionService(questions repository.QuestionRepository, notifier ResultsNotifier) *QuestionService {
	return &QuestionService{questions: questions, notifier: notifier, clock: time.Now}
}

// validate checks every field and reports the full set of problems at once.
func (in QuestionInput) validate() error {
	var problems []string
	if strings.TrimSpace(in.QuestionText) == "" {
		problems = append(problems, "question_text must not be empty")
	}
	if len(in.QuestionText) > maxTextLength {
		problems = append(problems, fmt.Sprintf("question_text must be at most %d characters", maxTextLength))
	}
	if in.PubDate.IsZero() {
		problems = append(problems, "pub_date is required")
	}
	for i, c := range in.Choices {
		if strings.TrimSpace(c.ChoiceText) == "" {
			problems = append(problems, fmt.Sprintf("choices[%d].choice_text must not be empty", i))
		}
		if len(c.ChoiceText) > maxTextLength {
			problems = append(problems, fmt.Sprintf("choices[%d].choice_text must be at most %d characters", i, maxTextLength))
		}
		if c.Votes < 0 {
			problems = append(problems, fmt.Sprintf("choices[%d].votes must not be negative", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", pollerrors.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *QuestionService) PublicList(ctx context.Context, page, pageSize int, all bool) (PagedQuestions, error) {
	now := s.clock()
	if all {
		questions, total, err := s.questions.ListPublished(ctx, now, 0, -1)
		if err != nil {
			return PagedQuestions{}, err
		}
		return PagedQuestions{
			Count:      total,
			Page:       1,
			TotalPages: 1,
			PageSize:   len(questions),
			Results:    questions,
		}, nil
	}
	return s.pagedList(ctx, page, pageSize, func(offset, limit int) ([]poll.Question, int64, error) {
		return s.questions.ListPublished(ctx, now, offset, limit)
	})
}

func (s *QuestionService) PublicDetail(ctx context.Context, id uint) (poll.Question, error) {
	return s.questions.GetPublished(ctx, id, s.clock())
}

func (s *QuestionService) AdminList(ctx context.Context, page, pageSize int) (PagedQuestions, error) {
	now := s.clock()
	return s.pagedList(ctx, page, pageSize, func(offset, limit int) ([]poll.Question, int64, error) {
		return s.questions.ListAll(ctx, now, offset, limit)
	})
}

// pagedList clamps out-of-range pages to the nearest valid page, the way the
// original paginator did, instead of failing the request.
func (s *QuestionService) pagedList(ctx context.Context, page, pageSize int, list func(offset, limit int) ([]poll.Question, int64, error)) (PagedQuestions, error) {
	if pageSize <= 0 {
		return PagedQuestions{}, fmt.Errorf("%w: page_size must be positive", pollerrors.ErrInvalidInput)
	}

	_, total, err := list(0, 0)
	if err != nil {
		return PagedQuestions{}, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	results, _, err := list((page-1)*pageSize, pageSize)
	if err != nil {
		return PagedQuestions{}, err
	}

	paged := PagedQuestions{
		Count:      total,
		Page:       page,
		TotalPages: totalPages,
		PageSize:   pageSize,
		Results:    results,
	}
	if page < totalPages {
		next := page + 1
		paged.Next = &next
	}
	if page > 1 {
		previous := page - 1
		paged.Previous = &previous
	}
	return paged, nil
}

func (s *QuestionService) Get(ctx context.Context, id uint) (poll.Question, error) {
	return s.questions.GetByID(ctx, id)
}

func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (poll.Question, error) {
	if err := in.validate(); err != nil {
		return poll.Question{}, err
	}
	q := poll.Question{
		QuestionText: in.QuestionText,
		PubDate:      in.PubDate,
	}
	for _, c := range in.Choices {
		q.Choices = append(q.Choices, poll.Choice{
			ChoiceText: c.ChoiceText,
			Votes:      c.Votes,
		})
	}
	if err := s.questions.Create(ctx, &q); err != nil {
		return poll.Question{}, err
	}
	s.notifyChanged(q.ID)
	return q, nil
}

func (s *QuestionService) Update(ctx context.Context, id uint, in QuestionInput) (poll.Question, error) {
	if err := in.validate(); err != nil {
		return poll.Question{}, err
	}
	q := poll.Question{
		ID:           id,
		QuestionText: in.QuestionText,
		PubDate:      in.PubDate,
	}
	for _, c := range in.Choices {
		q.Choices = append(q.Choices, poll.Choice{
			ID:         c.ID,
			ChoiceText: c.ChoiceText,
			Votes:      c.Votes,
		})
	}
	if err := s.questions.Update(ctx, q); err != nil {
		return poll.Question{}, err
	}
	s.notifyChanged(id)
	return s.questions.GetByID(ctx, id)
}

func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}
	s.notifyChanged(id)
	return nil
}

func (s *QuestionService) notifyChanged(id uint) {
	if s.notifier != nil {
		s.notifier.ResultsUpdated([]uint{id})
	}
}
