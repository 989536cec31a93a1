package push

import (
	"context"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(batchSize int, send func(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)) *FCMSender {
	return &FCMSender{batchSize: batchSize, send: send}
}

func allSuccess(msg *messaging.MulticastMessage) *messaging.BatchResponse {
	responses := make([]*messaging.SendResponse, len(msg.Tokens))
	for i, token := range msg.Tokens {
		responses[i] = &messaging.SendResponse{Success: true, MessageID: "msg-" + token}
	}
	return &messaging.BatchResponse{
		SuccessCount: len(msg.Tokens),
		Responses:    responses,
	}
}

func TestSendChunksToBatchSize(t *testing.T) {
	var batches [][]string
	sender := newTestSender(2, func(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
		batches = append(batches, msg.Tokens)
		return allSuccess(msg), nil
	})

	tokens := []string{"t1", "t2", "t3", "t4", "t5"}
	results, err := sender.Send(context.Background(), Content{Title: "t", Body: "b"}, tokens)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"t1", "t2"}, {"t3", "t4"}, {"t5"}}, batches)

	require.Len(t, results, len(tokens), "results positionally aligned with input tokens")
	for i, result := range results {
		assert.True(t, result.Success)
		assert.Equal(t, "msg-"+tokens[i], result.MessageID)
	}
}

func TestSendSurfacesPerTokenErrorsVerbatim(t *testing.T) {
	sender := newTestSender(500, func(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
		return &messaging.BatchResponse{
			SuccessCount: 1,
			FailureCount: 1,
			Responses: []*messaging.SendResponse{
				{Success: true, MessageID: "m1"},
				{Success: false, Error: fmt.Errorf("registration-token-not-registered")},
			},
		}, nil
	})

	results, err := sender.Send(context.Background(), Content{Title: "t", Body: "b"}, []string{"t1", "t2"})
	require.NoError(t, err, "a single token failure must not fail the batch")

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "registration-token-not-registered", results[1].Error)
	assert.Empty(t, results[1].MessageID)
}

func TestSendKeepsDeliveredResultsWhenLaterChunkFails(t *testing.T) {
	calls := 0
	sender := newTestSender(1, func(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
		calls++
		if calls > 1 {
			return nil, fmt.Errorf("connection reset")
		}
		return allSuccess(msg), nil
	})

	results, err := sender.Send(context.Background(), Content{Title: "t", Body: "b"}, []string{"tA", "tB", "tC"})
	require.NoError(t, err, "delivered outcomes must survive a later chunk failure")
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, "msg-tA", results[0].MessageID)
	for _, r := range results[1:] {
		assert.False(t, r.Success)
		assert.Equal(t, "connection reset", r.Error)
		assert.Empty(t, r.MessageID)
	}
}

func TestSendPropagatesTransportError(t *testing.T) {
	sender := newTestSender(500, func(_ context.Context, _ *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
		return nil, fmt.Errorf("connection refused")
	})

	results, err := sender.Send(context.Background(), Content{Title: "t", Body: "b"}, []string{"t1"})
	require.Error(t, err)
	assert.Nil(t, results, "no result list when the transmission could not be attempted")
}

func TestSendRejectsEmptyTokenList(t *testing.T) {
	sender := newTestSender(500, func(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
		return allSuccess(msg), nil
	})

	_, err := sender.Send(context.Background(), Content{Title: "t", Body: "b"}, nil)
	assert.Error(t, err)
}

func TestBuildMessageIncludesDeepLinkData(t *testing.T) {
	sender := newTestSender(500, nil)

	msg := sender.buildMessage(Content{Title: "t", Body: "b", ImageURL: "http://img", DeepLink: "app://entry/1"}, []string{"t1"})
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "t", msg.Notification.Title)
	assert.Equal(t, "b", msg.Notification.Body)
	assert.Equal(t, "http://img", msg.Notification.ImageURL)
	assert.Equal(t, map[string]string{"deep_link": "app://entry/1"}, msg.Data)

	plain := sender.buildMessage(Content{Title: "t", Body: "b"}, []string{"t1"})
	assert.Nil(t, plain.Data)
}
