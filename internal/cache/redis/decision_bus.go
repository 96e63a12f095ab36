package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// decisionChannel is the Pub/Sub channel quoting decisions fan out on.
const decisionChannel = "decisions"

// DecisionBus implements domain.DecisionBus using Redis Pub/Sub: every
// decision is published as JSON on a single channel and every subscriber
// sees every decision.
type DecisionBus struct {
	client *Client
}

// NewDecisionBus creates a DecisionBus backed by the given Client.
func NewDecisionBus(c *Client) *DecisionBus {
	return &DecisionBus{client: c}
}

// Publish sends a decision to every live subscriber. Delivery is ephemeral;
// durable history lives in the decision store, not here.
func (db *DecisionBus) Publish(ctx context.Context, dec domain.QuoteDecision) error {
	data, err := json.Marshal(dec)
	if err != nil {
		return fmt.Errorf("redis: marshal decision %s: %w", dec.Ticker, err)
	}
	if err := db.client.Underlying().Publish(ctx, decisionChannel, data).Err(); err != nil {
		return fmt.Errorf("redis: publish decision %s: %w", dec.Ticker, err)
	}
	return nil
}

// Subscribe returns a channel of decisions. The subscription lives until ctx
// is cancelled, at which point the returned channel is closed. Messages that
// fail to decode are dropped.
func (db *DecisionBus) Subscribe(ctx context.Context) (<-chan domain.QuoteDecision, error) {
	pubsub := db.client.Underlying().Subscribe(ctx, decisionChannel)

	// Confirm the subscription before handing out the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", decisionChannel, err)
	}

	out := make(chan domain.QuoteDecision, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var dec domain.QuoteDecision
				if err := json.Unmarshal([]byte(msg.Payload), &dec); err != nil {
					continue
				}
				select {
				case out <- dec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Compile-time interface check.
var _ domain.DecisionBus = (*DecisionBus)(nil)
