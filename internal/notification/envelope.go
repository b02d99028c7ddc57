package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gallery_api/internal/domain/models"
)

var (
	ErrInvalidEnvelope  = errors.New("invalid notification envelope")
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrUntrustedCertURL = errors.New("untrusted signing certificate url")
	ErrTopicNotAllowed  = errors.New("topic not allowed")
	ErrNotEvent         = errors.New("notification message is not an event")
)

// Kind is the type of an SNS envelope.
type Kind int

const (
	KindUnknown Kind = iota
	KindSubscriptionConfirmation
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindSubscriptionConfirmation:
		return "SubscriptionConfirmation"
	case KindNotification:
		return "Notification"
	}
	return "Unknown"
}

// Envelope is the JSON document SNS posts to an HTTP(S) subscriber.
type Envelope struct {
	Type             string `json:"Type"`
	MessageID        string `json:"MessageId"`
	Token            string `json:"Token,omitempty"`
	TopicArn         string `json:"TopicArn"`
	Subject          string `json:"Subject,omitempty"`
	Message          string `json:"Message"`
	Timestamp        string `json:"Timestamp"`
	SignatureVersion string `json:"SignatureVersion"`
	Signature        string `json:"Signature"`
	SigningCertURL   string `json:"SigningCertURL"`
	SubscribeURL     string `json:"SubscribeURL,omitempty"`
	UnsubscribeURL   string `json:"UnsubscribeURL,omitempty"`
}

// ParseEnvelope decodes an SNS HTTP delivery body.
func ParseEnvelope(raw []byte) (Envelope, error) {
	const op = "notification.ParseEnvelope"

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidEnvelope, err)
	}
	if env.Type == "" || env.MessageID == "" || env.TopicArn == "" {
		return Envelope{}, fmt.Errorf("%s: %w: missing required fields", op, ErrInvalidEnvelope)
	}

	return env, nil
}

func (e Envelope) Kind() Kind {
	switch e.Type {
	case "SubscriptionConfirmation":
		return KindSubscriptionConfirmation
	case "Notification":
		return KindNotification
	}
	return KindUnknown
}

// stringToSign builds the canonical text SNS signs for this envelope.
func (e Envelope) stringToSign() (string, error) {
	var fields [][2]string

	switch e.Type {
	case "Notification":
		fields = append(fields, [2]string{"Message", e.Message}, [2]string{"MessageId", e.MessageID})
		if e.Subject != "" {
			fields = append(fields, [2]string{"Subject", e.Subject})
		}
		fields = append(fields,
			[2]string{"Timestamp", e.Timestamp},
			[2]string{"TopicArn", e.TopicArn},
			[2]string{"Type", e.Type},
		)
	case "SubscriptionConfirmation", "UnsubscribeConfirmation":
		fields = [][2]string{
			{"Message", e.Message},
			{"MessageId", e.MessageID},
			{"SubscribeURL", e.SubscribeURL},
			{"Timestamp", e.Timestamp},
			{"Token", e.Token},
			{"TopicArn", e.TopicArn},
			{"Type", e.Type},
		}
	default:
		return "", fmt.Errorf("unsupported envelope type %q", e.Type)
	}

	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f[0])
		b.WriteByte('\n')
		b.WriteString(f[1])
		b.WriteByte('\n')
	}

	return b.String(), nil
}

// ExtractEvent unwraps the domain event carried in a Notification message.
// A message that is not a JSON object yields ErrNotEvent; an object without
// EventName yields an empty name.
func ExtractEvent(env Envelope) (string, json.RawMessage, error) {
	const op = "notification.ExtractEvent"

	if env.Kind() != KindNotification {
		return "", nil, fmt.Errorf("%s: %w: not a notification", op, ErrInvalidEnvelope)
	}

	var event models.Event
	if err := json.Unmarshal([]byte(env.Message), &event); err != nil {
		return "", nil, fmt.Errorf("%s: %w: %v", op, ErrNotEvent, err)
	}

	return event.EventName, event.Data, nil
}
