package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const resultsChannel = "polls:results"

type resultsEvent struct {
	QuestionIDs []uint `json:"question_ids"`
}

// ResultsPublisher fans vote-count changes out across API instances so every
// instance's live listeners hear about mutations applied elsewhere.
type ResultsPublisher struct {
	client *redis.Client
}

func NewResultsPublisher(client *redis.Client) *ResultsPublisher {
	return &ResultsPublisher{client: client}
}

func (p *ResultsPublisher) Publish(ctx context.Context, questionIDs []uint) error {
	payload, err := json.Marshal(resultsEvent{QuestionIDs: questionIDs})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, resultsChannel, payload).Err()
}

type ResultsSubscriber struct {
	client *redis.Client
}

func NewResultsSubscriber(client *redis.Client) *ResultsSubscriber {
	return &ResultsSubscriber{client: client}
}

// Subscribe blocks delivering results events until the context is cancelled.
func (s *ResultsSubscriber) Subscribe(ctx context.Context, handler func(questionIDs []uint)) error {
	sub := s.client.Subscribe(ctx, resultsChannel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var event resultsEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			continue
		}
		handler(event.QuestionIDs)
	}
}
