package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"pollbox/internal/repository/memory"
)

func TestPollOpenByDefault(t *testing.T) {
	svc := NewPollStatusService(memory.NewStore().PollStatus())

	closed, err := svc.IsClosed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if closed {
		t.Error("poll should be open before any status row exists")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	svc := NewPollStatusService(memory.NewStore().PollStatus())
	ctx := context.Background()
	closer := uuid.New()

	first, err := svc.Close(ctx, closer)
	if err != nil {
		t.Fatal(err)
	}
	if !first.IsClosed || first.ClosedAt == nil || first.ClosedBy == nil {
		t.Fatalf("close did not record closure: %+v", first)
	}

	second, err := svc.Close(ctx, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if !second.ClosedAt.Equal(*first.ClosedAt) {
		t.Error("second close must keep the original timestamp")
	}
	if *second.ClosedBy != closer {
		t.Error("second close must keep the original closer")
	}
}

func TestReopenClearsClosure(t *testing.T) {
	svc := NewPollStatusService(memory.NewStore().PollStatus())
	ctx := context.Background()

	if _, err := svc.Close(ctx, uuid.New()); err != nil {
		t.Fatal(err)
	}
	status, err := svc.Reopen(ctx, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if status.IsClosed || status.ClosedAt != nil || status.ClosedBy != nil {
		t.Errorf("reopen left closure fields set: %+v", status)
	}
}

func TestReopenWithoutPriorCloseIsNoop(t *testing.T) {
	svc := NewPollStatusService(memory.NewStore().PollStatus())

	status, err := svc.Reopen(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if status.IsClosed {
		t.Error("poll must stay open")
	}
}
