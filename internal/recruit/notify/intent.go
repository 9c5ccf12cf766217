// Package notify builds and renders applicant-facing notifications for
// recruiter actions.
package notify

import (
	"encoding/json"
	"strings"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
)

// Status change topics, versioned like the platform's other notification
// template ids.
const (
	TopicStatusViewed     = "application.status.viewed.v1"
	TopicStatusInterested = "application.status.interested.v1"
	TopicStatusAccepted   = "application.status.accepted.v1"
	TopicStatusDeclined   = "application.status.declined.v1"
)

var (
	// ErrEmptyRecipient indicates a missing applicant user id.
	ErrEmptyRecipient = apperrors.New(apperrors.CodeNotificationEmptyRecipient, "recipient user id is required")
	// ErrEmptyTopic indicates the status has no notification template.
	ErrEmptyTopic = apperrors.New(apperrors.CodeNotificationEmptyTopic, "no notification topic for status")
)

// Intent is one applicant notification request, ready for the gateway's
// fire-and-forget insert.
type Intent struct {
	RecipientUserID string
	Topic           string
	Title           string
	Message         string
	PayloadJSON     string
	DedupeKey       string
}

// StatusPayload is the structured metadata attached to a status change
// notification.
type StatusPayload struct {
	ApplicationID string `json:"application_id"`
	KingdomID     string `json:"kingdom_id"`
	KingdomName   string `json:"kingdom_name"`
	Status        string `json:"status"`
}

// StatusTopic returns the notification topic for a status, if the status
// notifies the applicant at all. Withdrawn and expired transitions are not
// produced by this client and have no templates.
func StatusTopic(status application.Status) (string, bool) {
	switch status {
	case application.StatusViewed:
		return TopicStatusViewed, true
	case application.StatusInterested:
		return TopicStatusInterested, true
	case application.StatusAccepted:
		return TopicStatusAccepted, true
	case application.StatusDeclined:
		return TopicStatusDeclined, true
	default:
		return "", false
	}
}

// NewStatusChangeIntent builds the applicant notification for one status
// change, rendered with the given localizer. The dedupe key collapses
// repeated deliveries of the same application/status pair.
func NewStatusChangeIntent(loc Localizer, app application.Application, kingdomName string) (Intent, error) {
	recipient := strings.TrimSpace(app.ApplicantUserID)
	if recipient == "" {
		return Intent{}, ErrEmptyRecipient
	}
	topic, ok := StatusTopic(app.Status)
	if !ok {
		return Intent{}, ErrEmptyTopic
	}

	payload := StatusPayload{
		ApplicationID: app.ID,
		KingdomID:     app.KingdomID,
		KingdomName:   strings.TrimSpace(kingdomName),
		Status:        application.StatusLabel(app.Status),
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, err
	}

	rendered := Render(loc, Input{Topic: topic, PayloadJSON: string(payloadJSON)})
	return Intent{
		RecipientUserID: recipient,
		Topic:           topic,
		Title:           rendered.Title,
		Message:         rendered.Body,
		PayloadJSON:     string(payloadJSON),
		DedupeKey:       topic + ":" + app.ID,
	}, nil
}
