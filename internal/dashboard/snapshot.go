// Package dashboard implements the recruiter dashboard synchronizer:
// a serialized snapshot cache, optimistic status mutations with
// rollback, bulk fan-out, and push-driven reconciliation against the
// remote data gateway.
package dashboard

import (
	"time"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage"
)

// Snapshot is one recruiter's fully materialized dashboard state. All
// reads and optimistic patches operate on whole snapshots; partial
// merges are never attempted.
type Snapshot struct {
	Editor       storage.Editor
	Applications []application.Application
	Team         []team.Member
	Fund         fund.Fund
	Unread       map[string]int
	FetchedAt    time.Time
}

// Clone returns a deep copy. Rollbacks restore clones, so a pending
// mutation's captured state must not alias live cache memory.
func (s Snapshot) Clone() Snapshot {
	clone := s
	if s.Applications != nil {
		clone.Applications = make([]application.Application, len(s.Applications))
		for i, app := range s.Applications {
			clone.Applications[i] = cloneApplication(app)
		}
	}
	if s.Team != nil {
		clone.Team = make([]team.Member, len(s.Team))
		for i, member := range s.Team {
			clone.Team[i] = cloneMember(member)
		}
	}
	if s.Unread != nil {
		clone.Unread = make(map[string]int, len(s.Unread))
		for id, count := range s.Unread {
			clone.Unread[id] = count
		}
	}
	return clone
}

// Application returns the snapshot's copy of one application.
func (s Snapshot) Application(id string) (application.Application, bool) {
	for _, app := range s.Applications {
		if app.ID == id {
			return cloneApplication(app), true
		}
	}
	return application.Application{}, false
}

// setApplication replaces the row with a matching id in place.
func (s *Snapshot) setApplication(app application.Application) {
	for i := range s.Applications {
		if s.Applications[i].ID == app.ID {
			s.Applications[i] = app
			return
		}
	}
}

func cloneApplication(app application.Application) application.Application {
	clone := app
	if app.ViewedAt != nil {
		viewedAt := *app.ViewedAt
		clone.ViewedAt = &viewedAt
	}
	if app.RespondedAt != nil {
		respondedAt := *app.RespondedAt
		clone.RespondedAt = &respondedAt
	}
	return clone
}

func cloneMember(member team.Member) team.Member {
	clone := member
	if member.ApprovedAt != nil {
		approvedAt := *member.ApprovedAt
		clone.ApprovedAt = &approvedAt
	}
	return clone
}
