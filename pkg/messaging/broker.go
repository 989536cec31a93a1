package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// DispatchEvent is published after a dispatch run reaches a terminal status.
// Downstream dashboard services subscribe to keep their views current.
type DispatchEvent struct {
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}
