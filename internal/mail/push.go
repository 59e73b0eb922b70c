package mail

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// PushNotification is the decoded payload of a Gmail watch notification
// delivered through a Pub/Sub push subscription.
type PushNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodePushNotification unwraps the Pub/Sub envelope around a Gmail watch
// event.
func DecodePushNotification(body []byte) (PushNotification, error) {
	var envelope pushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return PushNotification{}, fmt.Errorf("decoding push envelope: %w", err)
	}
	if envelope.Message.Data == "" {
		return PushNotification{}, fmt.Errorf("push envelope carried no data")
	}

	data, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return PushNotification{}, fmt.Errorf("decoding push data: %w", err)
	}

	var notification PushNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		return PushNotification{}, fmt.Errorf("decoding push notification: %w", err)
	}
	return notification, nil
}
