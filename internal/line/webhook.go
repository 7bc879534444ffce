package line

import (
	"encoding/json"
	"fmt"
)

// MessageKind is the closed set of inbound message classifications the relay
// handles. Anything that is not a text or image message maps to KindOther and
// is dropped without a reply.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindOther MessageKind = "other"
)

// WebhookBody is the envelope LINE posts to the callback endpoint.
type WebhookBody struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one webhook-delivered event.
type Event struct {
	Type       string  `json:"type"`
	ReplyToken string  `json:"replyToken"`
	Timestamp  int64   `json:"timestamp"`
	Source     Source  `json:"source"`
	Message    Message `json:"message"`
}

// Source identifies the sender of an event.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Message carries the payload of a message event.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// Kind classifies the event into the closed MessageKind set.
func (e Event) Kind() MessageKind {
	if e.Type != "message" {
		return KindOther
	}
	switch e.Message.Type {
	case "text":
		return KindText
	case "image":
		return KindImage
	default:
		return KindOther
	}
}

// ParseWebhook decodes a verified webhook body. It must only be called after
// VerifySignature has accepted the raw bytes.
func ParseWebhook(body []byte) (WebhookBody, error) {
	var payload WebhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookBody{}, fmt.Errorf("line: decode webhook body: %w", err)
	}
	return payload, nil
}
