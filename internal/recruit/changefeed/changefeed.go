// Package changefeed delivers row change events to dashboard subscribers.
//
// The hub is the in-process rendition of the hosted store's realtime feed:
// every gateway write publishes an insert/update event scoped to a kingdom,
// and subscribers receive the events for the tables they asked for. Slow
// subscribers lose events rather than block writers; the dashboard treats
// any event as a refetch hint, so a dropped event only delays convergence
// until the next event or staleness refresh.
package changefeed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Table identifies one remote collection covered by the feed.
type Table string

const (
	// TableApplications carries application row changes.
	TableApplications Table = "applications"
	// TableTeamMembers carries team membership row changes.
	TableTeamMembers Table = "team_members"
	// TableMessages carries applicant message row changes.
	TableMessages Table = "messages"
)

// Kind distinguishes inserts from updates.
type Kind int

const (
	// KindUnspecified represents an invalid event kind.
	KindUnspecified Kind = iota
	// KindInsert indicates a new row.
	KindInsert
	// KindUpdate indicates a changed row.
	KindUpdate
)

// ErrHubClosed indicates a subscription attempt on a closed hub.
var ErrHubClosed = errors.New("changefeed hub is closed")

// Event is one row change notification.
type Event struct {
	Table       Table
	Kind        Kind
	KingdomID   string
	RowID       string
	ActorUserID string
	OccurredAt  time.Time
}

// Subscription is one cancellable event stream. The Events channel closes
// when the subscription is released, whether by Close, context cancellation,
// or hub shutdown.
type Subscription struct {
	events  chan Event
	done    chan struct{}
	release func()
	once    sync.Once
}

// Events returns the subscriber's event stream.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.release()
		close(s.done)
	})
}

type subscriber struct {
	kingdomID string
	tables    map[Table]struct{}
	events    chan Event
}

// Hub fans row change events out to per-kingdom subscribers.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

const subscriptionBuffer = 16

// Subscribe registers for insert/update events scoped to one kingdom and a
// set of tables. The subscription is torn down when ctx is cancelled or
// Close is called, whichever comes first.
func (h *Hub) Subscribe(ctx context.Context, kingdomID string, tables ...Table) (*Subscription, error) {
	kingdomID = strings.TrimSpace(kingdomID)
	if kingdomID == "" {
		return nil, errors.New("kingdom id is required")
	}
	if len(tables) == 0 {
		return nil, errors.New("at least one table is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tableSet := make(map[Table]struct{}, len(tables))
	for _, table := range tables {
		tableSet[table] = struct{}{}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	id := h.nextID
	h.nextID++
	sub := &subscriber{
		kingdomID: kingdomID,
		tables:    tableSet,
		events:    make(chan Event, subscriptionBuffer),
	}
	h.subs[id] = sub
	h.mu.Unlock()

	subscription := &Subscription{
		events:  sub.events,
		done:    make(chan struct{}),
		release: func() { h.remove(id) },
	}

	go func() {
		select {
		case <-ctx.Done():
			subscription.Close()
		case <-subscription.done:
		}
	}()

	return subscription, nil
}

// Publish delivers an event to every matching subscriber. Delivery is
// non-blocking; a full subscriber buffer drops the event for that
// subscriber only.
func (h *Hub) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		if sub.kingdomID != event.KingdomID {
			continue
		}
		if _, ok := sub.tables[event.Table]; !ok {
			continue
		}
		select {
		case sub.events <- event:
		default:
		}
	}
}

// Close tears down the hub and closes every subscriber stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.events)
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.events)
}

// KindLabel returns the stable label for an event kind.
func KindLabel(kind Kind) string {
	switch kind {
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	default:
		return "UNSPECIFIED"
	}
}
