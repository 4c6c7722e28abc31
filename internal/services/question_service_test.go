package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/repository/memory"
	pollerrors "pollbox/pkg/errors"
)

func seedQuestions(t *testing.T, store *memory.Store, published, future int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < published; i++ {
		q := &poll.Question{
			QuestionText: "published",
			PubDate:      time.Now().Add(-time.Duration(i+1) * time.Hour),
			Choices:      []poll.Choice{{ChoiceText: "a"}, {ChoiceText: "b"}},
		}
		if err := store.Questions().Create(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < future; i++ {
		q := &poll.Question{
			QuestionText: "future",
			PubDate:      time.Now().Add(time.Duration(i+1) * time.Hour),
			Choices:      []poll.Choice{{ChoiceText: "a"}},
		}
		if err := store.Questions().Create(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPublicListPagination(t *testing.T) {
	store := memory.NewStore()
	seedQuestions(t, store, 7, 2)
	svc := NewQuestionService(store.Questions(), nil)
	ctx := context.Background()

	page1, err := svc.PublicList(ctx, 1, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if page1.Count != 7 || page1.TotalPages != 2 || len(page1.Results) != 5 {
		t.Fatalf("page 1: count=%d totalPages=%d results=%d", page1.Count, page1.TotalPages, len(page1.Results))
	}
	if page1.Next == nil || *page1.Next != 2 || page1.Previous != nil {
		t.Error("page 1 navigation wrong")
	}

	page2, err := svc.PublicList(ctx, 2, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(page2.Results) != 2 || page2.Previous == nil || *page2.Previous != 1 || page2.Next != nil {
		t.Error("page 2 navigation wrong")
	}
}

func TestPublicListClampsOutOfRangePage(t *testing.T) {
	store := memory.NewStore()
	seedQuestions(t, store, 3, 0)
	svc := NewQuestionService(store.Questions(), nil)

	result, err := svc.PublicList(context.Background(), 99, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Page != 1 || len(result.Results) != 3 {
		t.Errorf("expected clamp to page 1 with 3 results, got page %d with %d", result.Page, len(result.Results))
	}

	result, err = svc.PublicList(context.Background(), -4, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Page != 1 {
		t.Errorf("negative page should clamp to 1, got %d", result.Page)
	}
}

func TestPublicListAll(t *testing.T) {
	store := memory.NewStore()
	seedQuestions(t, store, 8, 3)
	svc := NewQuestionService(store.Questions(), nil)

	result, err := svc.PublicList(context.Background(), 3, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Results) != 8 || result.TotalPages != 1 || result.Page != 1 {
		t.Errorf("page_size=all: got %d results, page %d of %d", len(result.Results), result.Page, result.TotalPages)
	}
}

func TestPublicListEmptyStore(t *testing.T) {
	svc := NewQuestionService(memory.NewStore().Questions(), nil)

	result, err := svc.PublicList(context.Background(), 1, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Count != 0 || result.TotalPages != 1 || len(result.Results) != 0 {
		t.Errorf("empty store: count=%d totalPages=%d results=%d", result.Count, result.TotalPages, len(result.Results))
	}
}

func TestPublicDetailHidesUnpublished(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	q := &poll.Question{
		QuestionText: "future",
		PubDate:      time.Now().Add(time.Hour),
		Choices:      []poll.Choice{{ChoiceText: "a"}},
	}
	if err := store.Questions().Create(ctx, q); err != nil {
		t.Fatal(err)
	}
	svc := NewQuestionService(store.Questions(), nil)

	_, err := svc.PublicDetail(ctx, q.ID)
	if !errors.Is(err, pollerrors.ErrNotFound) {
		t.Fatalf("unpublished question must read as not found, got %v", err)
	}
}

func TestAdminListIncludesHidden(t *testing.T) {
	store := memory.NewStore()
	seedQuestions(t, store, 2, 2)
	svc := NewQuestionService(store.Questions(), nil)

	result, err := svc.AdminList(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Count != 4 {
		t.Errorf("admin list must count all questions, got %d", result.Count)
	}
	// Published bucket sorts before the upcoming one.
	if result.Results[0].QuestionText != "published" {
		t.Errorf("expected published questions first, got %q", result.Results[0].QuestionText)
	}
	last := result.Results[len(result.Results)-1]
	if last.QuestionText != "future" {
		t.Errorf("expected future questions last, got %q", last.QuestionText)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewQuestionService(memory.NewStore().Questions(), nil)

	_, err := svc.Create(context.Background(), QuestionInput{
		QuestionText: "",
		Choices:      []ChoiceInput{{ChoiceText: ""}, {ChoiceText: "ok", Votes: -1}},
	})
	if !errors.Is(err, pollerrors.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// Every failing field is reported, not just the first.
	msg := err.Error()
	for _, want := range []string{"question_text", "pub_date", "choices[0]", "choices[1]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestUpdateReconcilesChoices(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	q := &poll.Question{
		QuestionText: "original",
		PubDate:      time.Now().Add(-time.Hour),
		Choices:      []poll.Choice{{ChoiceText: "keep"}, {ChoiceText: "drop"}},
	}
	if err := store.Questions().Create(ctx, q); err != nil {
		t.Fatal(err)
	}
	svc := NewQuestionService(store.Questions(), nil)

	updated, err := svc.Update(ctx, q.ID, QuestionInput{
		QuestionText: "updated",
		PubDate:      q.PubDate,
		Choices: []ChoiceInput{
			{ID: q.Choices[0].ID, ChoiceText: "kept"},
			{ChoiceText: "added"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if updated.QuestionText != "updated" {
		t.Errorf("question text not updated: %q", updated.QuestionText)
	}
	if len(updated.Choices) != 2 {
		t.Fatalf("expected 2 choices after reconcile, got %d", len(updated.Choices))
	}
	texts := map[string]bool{}
	for _, c := range updated.Choices {
		texts[c.ChoiceText] = true
	}
	if !texts["kept"] || !texts["added"] || texts["drop"] {
		t.Errorf("wrong choice set after reconcile: %v", texts)
	}
}

func TestDeleteScopedToOneQuestion(t *testing.T) {
	store := memory.NewStore()
	seedQuestions(t, store, 2, 0)
	svc := NewQuestionService(store.Questions(), nil)
	ctx := context.Background()

	all, _, err := store.Questions().ListAll(ctx, time.Now(), 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, all[0].ID); err != nil {
		t.Fatal(err)
	}

	count, err := store.Questions().Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 surviving question, got %d", count)
	}
	if _, err := store.Questions().GetByID(ctx, all[1].ID); err != nil {
		t.Errorf("unrelated question must survive: %v", err)
	}
}
