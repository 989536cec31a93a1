package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/global-vision-developer/adminpro-api/internal/config"
)

// fcmTokenLimit is FCM's maximum tokens per multicast call.
const fcmTokenLimit = 500

// FCMSender sends multicast pushes through Firebase Cloud Messaging.
type FCMSender struct {
	client    *messaging.Client
	batchSize int

	// seam for tests, defaults to client.SendEachForMulticast
	send func(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// NewFCMSender initializes the Firebase app once at process start; the
// resulting sender is shared by every dispatch run.
func NewFCMSender(ctx context.Context, cfg config.FCMConfig) (*FCMSender, error) {
	opt := option.WithCredentialsFile(cfg.CredentialsFile)
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: cfg.ProjectID,
	}, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 || batchSize > fcmTokenLimit {
		batchSize = fcmTokenLimit
	}

	return &FCMSender{
		client:    client,
		batchSize: batchSize,
		send: func(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			return client.SendEachForMulticast(ctx, msg)
		},
	}, nil
}

// Send transmits the message to all tokens, chunking to the provider limit.
// Chunking is invisible to callers: the result list has one entry per input
// token, in input order. A transport failure on a later chunk does not erase
// outcomes already delivered; the failed chunk and the unattempted remainder
// are reported as per-token failures instead.
func (s *FCMSender) Send(ctx context.Context, content Content, tokens []string) ([]Result, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens to send to")
	}

	results := make([]Result, 0, len(tokens))
	for start := 0; start < len(tokens); start += s.batchSize {
		end := start + s.batchSize
		if end > len(tokens) {
			end = len(tokens)
		}

		resp, err := s.send(ctx, s.buildMessage(content, tokens[start:end]))
		if err != nil {
			if start == 0 {
				return nil, fmt.Errorf("multicast send failed: %w", err)
			}
			for range tokens[start:] {
				results = append(results, Result{Error: err.Error()})
			}
			return results, nil
		}

		for _, r := range resp.Responses {
			if r.Success {
				results = append(results, Result{Success: true, MessageID: r.MessageID})
			} else {
				results = append(results, Result{Error: r.Error.Error()})
			}
		}
	}

	return results, nil
}

func (s *FCMSender) buildMessage(content Content, tokens []string) *messaging.MulticastMessage {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title:    content.Title,
			Body:     content.Body,
			ImageURL: content.ImageURL,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if content.DeepLink != "" {
		msg.Data = map[string]string{"deep_link": content.DeepLink}
	}
	return msg
}
