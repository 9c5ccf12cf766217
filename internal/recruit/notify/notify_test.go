package notify

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
)

func englishLocalizer() Localizer {
	return message.NewPrinter(language.English)
}

func TestStatusTopicCoversNotifyingStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status application.Status
		topic  string
		ok     bool
	}{
		{application.StatusViewed, TopicStatusViewed, true},
		{application.StatusInterested, TopicStatusInterested, true},
		{application.StatusAccepted, TopicStatusAccepted, true},
		{application.StatusDeclined, TopicStatusDeclined, true},
		{application.StatusPending, "", false},
		{application.StatusWithdrawn, "", false},
		{application.StatusExpired, "", false},
	}
	for _, tc := range cases {
		topic, ok := StatusTopic(tc.status)
		if topic != tc.topic || ok != tc.ok {
			t.Fatalf("StatusTopic(%s) = %q, %v", application.StatusLabel(tc.status), topic, ok)
		}
	}
}

func TestNewStatusChangeIntentDeclined(t *testing.T) {
	t.Parallel()

	app := application.Application{
		ID:              "app-1",
		KingdomID:       "kingdom-1",
		ApplicantUserID: "applicant-1",
		Status:          application.StatusDeclined,
	}
	intent, err := NewStatusChangeIntent(englishLocalizer(), app, "Northreach")
	if err != nil {
		t.Fatalf("new intent: %v", err)
	}
	if intent.RecipientUserID != "applicant-1" {
		t.Fatalf("recipient = %q", intent.RecipientUserID)
	}
	if intent.Topic != TopicStatusDeclined {
		t.Fatalf("topic = %q", intent.Topic)
	}
	if intent.DedupeKey != TopicStatusDeclined+":app-1" {
		t.Fatalf("dedupe key = %q", intent.DedupeKey)
	}
	if !strings.Contains(intent.Message, "Northreach") {
		t.Fatalf("expected kingdom name in message, got %q", intent.Message)
	}
	if !strings.Contains(strings.ToLower(intent.Message), "declined") {
		t.Fatalf("expected declined copy, got %q", intent.Message)
	}
}

func TestDeclinedAndAcceptedCopyDiffer(t *testing.T) {
	t.Parallel()

	loc := englishLocalizer()
	accepted := Render(loc, Input{Topic: TopicStatusAccepted, PayloadJSON: `{"kingdom_name":"Northreach"}`})
	declined := Render(loc, Input{Topic: TopicStatusDeclined, PayloadJSON: `{"kingdom_name":"Northreach"}`})

	if accepted.Title == declined.Title || accepted.Body == declined.Body {
		t.Fatalf("accepted and declined templates must be distinguishable: %+v vs %+v", accepted, declined)
	}
}

func TestNewStatusChangeIntentValidates(t *testing.T) {
	t.Parallel()

	loc := englishLocalizer()
	app := application.Application{ID: "app-1", KingdomID: "kingdom-1", Status: application.StatusViewed}
	if _, err := NewStatusChangeIntent(loc, app, ""); !errors.Is(err, ErrEmptyRecipient) {
		t.Fatalf("expected ErrEmptyRecipient, got %v", err)
	}

	app.ApplicantUserID = "applicant-1"
	app.Status = application.StatusPending
	if _, err := NewStatusChangeIntent(loc, app, ""); !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("expected ErrEmptyTopic, got %v", err)
	}
}

func TestRenderFallsBackOnUnknownTopic(t *testing.T) {
	t.Parallel()

	got := Render(englishLocalizer(), Input{Topic: "application.status.bogus.v9"})
	if got.Title != defaultGenericTitle {
		t.Fatalf("expected generic title, got %q", got.Title)
	}
}

func TestRenderFallsBackOnBadPayload(t *testing.T) {
	t.Parallel()

	got := Render(englishLocalizer(), Input{Topic: TopicStatusViewed, PayloadJSON: "{not json"})
	if got.Title != defaultGenericTitle {
		t.Fatalf("expected generic title, got %q", got.Title)
	}
}

func TestRenderNilLocalizer(t *testing.T) {
	t.Parallel()

	got := Render(nil, Input{Topic: TopicStatusViewed, PayloadJSON: `{"kingdom_name":"Northreach"}`})
	if got.Title == "" || got.Body == "" {
		t.Fatalf("expected non-empty fallback copy, got %+v", got)
	}
}
