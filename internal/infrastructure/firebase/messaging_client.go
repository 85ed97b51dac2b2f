package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"servicemarket/pkg/logger"
)

// fcm is the part of *messaging.Client the sender uses.
type fcm interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
}

const multicastLimit = 500

// MessagingClient sends push notifications through FCM.
type MessagingClient struct {
	client fcm
}

func NewMessagingClient(client *messaging.Client) *MessagingClient {
	return &MessagingClient{client: client}
}

func newMessagingClient(client fcm) *MessagingClient {
	return &MessagingClient{client: client}
}

func androidHighPriority() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:     "default",
			ChannelID: "default",
		},
	}
}

func apnsDefaultSound() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
	}
}

// SendToToken pushes to a single device token.
func (m *MessagingClient) SendToToken(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return nil
	}
	_, err := m.client.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
		Android:      androidHighPriority(),
		APNS:         apnsDefaultSound(),
	})
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			logger.Debug("fcm token no longer registered, skipping")
			return nil
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// SendToTokens pushes to many devices, batching at the FCM multicast limit.
// It returns how many deliveries succeeded.
func (m *MessagingClient) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) (int, error) {
	tokens = compact(tokens)
	sent := 0
	for start := 0; start < len(tokens); start += multicastLimit {
		end := start + multicastLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		resp, err := m.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       tokens[start:end],
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         data,
			Android:      androidHighPriority(),
			APNS:         apnsDefaultSound(),
		})
		if err != nil {
			return sent, fmt.Errorf("fcm multicast: %w", err)
		}
		sent += resp.SuccessCount
		if resp.FailureCount > 0 {
			logger.Debug("fcm multicast: %d of %d failed", resp.FailureCount, end-start)
		}
	}
	return sent, nil
}

// SendToTopic pushes to every device subscribed to topic.
func (m *MessagingClient) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error {
	_, err := m.client.Send(ctx, &messaging.Message{
		Topic:        topic,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
		Android:      androidHighPriority(),
		APNS:         apnsDefaultSound(),
	})
	if err != nil {
		return fmt.Errorf("fcm topic send: %w", err)
	}
	return nil
}

func (m *MessagingClient) SubscribeToTopics(ctx context.Context, token string, topics []string) error {
	if token == "" {
		return nil
	}
	for _, topic := range topics {
		if _, err := m.client.SubscribeToTopic(ctx, []string{token}, topic); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
	}
	return nil
}

func (m *MessagingClient) UnsubscribeFromTopics(ctx context.Context, token string, topics []string) error {
	if token == "" {
		return nil
	}
	for _, topic := range topics {
		if _, err := m.client.UnsubscribeFromTopic(ctx, []string{token}, topic); err != nil {
			return fmt.Errorf("unsubscribe from %s: %w", topic, err)
		}
	}
	return nil
}

func compact(tokens []string) []string {
	out := tokens[:0:0]
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NoopMessaging is used when Firebase is not configured.
type NoopMessaging struct{}

func (NoopMessaging) SendToToken(_ context.Context, token, title, _ string, _ map[string]string) error {
	if token != "" {
		logger.Debug("push disabled, dropping %q", title)
	}
	return nil
}

func (NoopMessaging) SendToTokens(context.Context, []string, string, string, map[string]string) (int, error) {
	return 0, nil
}

func (NoopMessaging) SendToTopic(_ context.Context, topic, title, _ string, _ map[string]string) error {
	logger.Debug("push disabled, dropping topic %s message %q", topic, title)
	return nil
}

func (NoopMessaging) SubscribeToTopics(context.Context, string, []string) error {
	return nil
}

func (NoopMessaging) UnsubscribeFromTopics(context.Context, string, []string) error {
	return nil
}
