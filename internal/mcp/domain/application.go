package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
)

// ApplicationEntry represents one application in MCP tool output.
type ApplicationEntry struct {
	ID            string   `json:"id" jsonschema:"application identifier"`
	Status        string   `json:"status" jsonschema:"application status"`
	Kingdom       string   `json:"kingdom" jsonschema:"applicant's current kingdom"`
	Power         int64    `json:"power" jsonschema:"applicant power"`
	TCLevel       int      `json:"tc_level" jsonschema:"applicant town center level"`
	Contact       string   `json:"contact,omitempty" jsonschema:"contact handle when visible"`
	ApplicantNote string   `json:"applicant_note,omitempty" jsonschema:"note from the applicant"`
	RecruiterNote string   `json:"recruiter_note,omitempty" jsonschema:"private recruiter note"`
	AppliedAt     string   `json:"applied_at" jsonschema:"application timestamp"`
	ViewedAt      string   `json:"viewed_at,omitempty" jsonschema:"first viewed timestamp"`
	RespondedAt   string   `json:"responded_at,omitempty" jsonschema:"first decision timestamp"`
	ExpiresAt     string   `json:"expires_at" jsonschema:"expiry deadline"`
	Unread        int      `json:"unread,omitempty" jsonschema:"unread message count"`
	Actions       []string `json:"actions,omitempty" jsonschema:"allowed next statuses"`
}

// ApplicationListInput represents the MCP tool input for listing applications.
type ApplicationListInput struct {
	Status string `json:"status,omitempty" jsonschema:"optional status filter (PENDING, VIEWED, INTERESTED, ACCEPTED, DECLINED, WITHDRAWN, EXPIRED)"`
}

// ApplicationListResult represents the MCP tool output for listing applications.
type ApplicationListResult struct {
	Applications []ApplicationEntry `json:"applications" jsonschema:"applications newest first"`
}

// ApplicationStatusInput represents the MCP tool input for a status change.
type ApplicationStatusInput struct {
	ApplicationID string `json:"application_id" jsonschema:"application identifier (required)"`
	Status        string `json:"status" jsonschema:"target status (VIEWED, INTERESTED, ACCEPTED, DECLINED)"`
}

// ApplicationStatusResult represents the MCP tool output for a status change.
type ApplicationStatusResult struct {
	Application ApplicationEntry `json:"application" jsonschema:"the application after the change"`
}

// ApplicationBulkStatusInput represents the MCP tool input for a bulk status change.
type ApplicationBulkStatusInput struct {
	ApplicationIDs []string `json:"application_ids" jsonschema:"application identifiers (required)"`
	Status         string   `json:"status" jsonschema:"target status applied to every application"`
}

// ApplicationBulkStatusResult represents the MCP tool output for a bulk status change.
type ApplicationBulkStatusResult struct {
	Succeeded []string          `json:"succeeded" jsonschema:"applications whose writes committed"`
	Failed    map[string]string `json:"failed,omitempty" jsonschema:"failed applications keyed by id"`
}

// ApplicationMarkReadInput represents the MCP tool input for marking messages read.
type ApplicationMarkReadInput struct {
	ApplicationID string `json:"application_id" jsonschema:"application identifier (required)"`
}

// ApplicationMarkReadResult represents the MCP tool output for marking messages read.
type ApplicationMarkReadResult struct {
	UnreadTotal int `json:"unread_total" jsonschema:"remaining unread messages across all applications"`
}

// ApplicationListTool defines the MCP tool schema for listing applications.
func ApplicationListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "application_list",
		Description: "Lists the kingdom's transfer applications, newest first, with an optional status filter",
	}
}

// ApplicationStatusTool defines the MCP tool schema for a status change.
func ApplicationStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "application_change_status",
		Description: "Moves one application to a new status (VIEWED, INTERESTED, ACCEPTED, or DECLINED)",
	}
}

// ApplicationBulkStatusTool defines the MCP tool schema for a bulk status change.
func ApplicationBulkStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "application_bulk_change_status",
		Description: "Applies one status change to several applications at once; failed items roll back individually",
	}
}

// ApplicationMarkReadTool defines the MCP tool schema for marking messages read.
func ApplicationMarkReadTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "application_mark_read",
		Description: "Marks an application's message thread as read",
	}
}

// ApplicationListHandler lists applications from the dashboard snapshot.
func ApplicationListHandler(board Dashboard) mcp.ToolHandlerFor[ApplicationListInput, ApplicationListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationListInput) (*mcp.CallToolResult, ApplicationListResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		filter := application.StatusUnspecified
		if label := strings.TrimSpace(input.Status); label != "" {
			filter = application.StatusFromLabel(label)
			if filter == application.StatusUnspecified {
				return nil, ApplicationListResult{}, fmt.Errorf("status %q is not recognized", input.Status)
			}
		}

		snapshot, err := board.Read(runCtx)
		if err != nil {
			return nil, ApplicationListResult{}, fmt.Errorf("application list failed: %w", err)
		}

		result := ApplicationListResult{Applications: []ApplicationEntry{}}
		for _, app := range snapshot.Applications {
			if filter != application.StatusUnspecified && app.Status != filter {
				continue
			}
			result.Applications = append(result.Applications, applicationEntry(app, snapshot.Unread[app.ID]))
		}

		return nil, result, nil
	}
}

// ApplicationStatusHandler executes one optimistic status change.
func ApplicationStatusHandler(board Dashboard) mcp.ToolHandlerFor[ApplicationStatusInput, ApplicationStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationStatusInput) (*mcp.CallToolResult, ApplicationStatusResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		applicationID := strings.TrimSpace(input.ApplicationID)
		if applicationID == "" {
			return nil, ApplicationStatusResult{}, fmt.Errorf("application_id is required")
		}
		target, err := decisionStatus(input.Status)
		if err != nil {
			return nil, ApplicationStatusResult{}, err
		}

		updated, err := board.ChangeStatus(runCtx, applicationID, target)
		if err != nil {
			return nil, ApplicationStatusResult{}, fmt.Errorf("status change failed: %w", err)
		}

		return nil, ApplicationStatusResult{Application: applicationEntry(updated, 0)}, nil
	}
}

// ApplicationBulkStatusHandler executes a bulk status change over a selection.
func ApplicationBulkStatusHandler(board Dashboard) mcp.ToolHandlerFor[ApplicationBulkStatusInput, ApplicationBulkStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationBulkStatusInput) (*mcp.CallToolResult, ApplicationBulkStatusResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		if len(input.ApplicationIDs) == 0 {
			return nil, ApplicationBulkStatusResult{}, fmt.Errorf("application_ids is required")
		}
		target, err := decisionStatus(input.Status)
		if err != nil {
			return nil, ApplicationBulkStatusResult{}, err
		}

		for _, id := range input.ApplicationIDs {
			board.Select(strings.TrimSpace(id))
		}
		outcome, err := board.ApplySelected(runCtx, target)
		if err != nil {
			return nil, ApplicationBulkStatusResult{}, fmt.Errorf("bulk status change failed: %w", err)
		}

		result := ApplicationBulkStatusResult{Succeeded: outcome.Succeeded}
		if len(outcome.Failed) > 0 {
			result.Failed = make(map[string]string, len(outcome.Failed))
			for id, itemErr := range outcome.Failed {
				result.Failed[id] = itemErr.Error()
			}
		}

		return nil, result, nil
	}
}

// ApplicationMarkReadHandler marks an application's thread as read.
func ApplicationMarkReadHandler(board Dashboard) mcp.ToolHandlerFor[ApplicationMarkReadInput, ApplicationMarkReadResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationMarkReadInput) (*mcp.CallToolResult, ApplicationMarkReadResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		applicationID := strings.TrimSpace(input.ApplicationID)
		if applicationID == "" {
			return nil, ApplicationMarkReadResult{}, fmt.Errorf("application_id is required")
		}

		if err := board.MarkApplicationRead(runCtx, applicationID); err != nil {
			return nil, ApplicationMarkReadResult{}, fmt.Errorf("mark read failed: %w", err)
		}

		snapshot, err := board.Read(runCtx)
		if err != nil {
			return nil, ApplicationMarkReadResult{}, fmt.Errorf("read snapshot failed: %w", err)
		}

		total := 0
		for _, count := range snapshot.Unread {
			total += count
		}
		return nil, ApplicationMarkReadResult{UnreadTotal: total}, nil
	}
}

// applicationEntry maps an application onto its MCP representation. Contact
// details stay blank while the applicant's anonymity holds.
func applicationEntry(app application.Application, unread int) ApplicationEntry {
	entry := ApplicationEntry{
		ID:            app.ID,
		Status:        application.StatusLabel(app.Status),
		Kingdom:       app.Profile.Kingdom,
		Power:         app.Profile.Power,
		TCLevel:       app.Profile.TCLevel,
		ApplicantNote: app.ApplicantNote,
		RecruiterNote: app.RecruiterNote,
		AppliedAt:     formatTime(app.AppliedAt),
		ViewedAt:      formatTimePointer(app.ViewedAt),
		RespondedAt:   formatTimePointer(app.RespondedAt),
		ExpiresAt:     formatTime(app.ExpiresAt),
		Unread:        unread,
	}
	if app.ContactVisible() {
		entry.Contact = app.Profile.Contact
	}
	for _, action := range application.Actions(app.Status) {
		entry.Actions = append(entry.Actions, application.StatusLabel(action.Target))
	}
	return entry
}

// decisionStatus parses a recruiter-reachable target status label.
func decisionStatus(label string) (application.Status, error) {
	status := application.StatusFromLabel(strings.TrimSpace(label))
	switch status {
	case application.StatusViewed, application.StatusInterested, application.StatusAccepted, application.StatusDeclined:
		return status, nil
	default:
		return application.StatusUnspecified, fmt.Errorf("status %q is not a recruiter decision", label)
	}
}
