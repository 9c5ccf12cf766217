package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
)

// TeamMemberEntry represents one editorial team member in MCP output.
type TeamMemberEntry struct {
	ID          string `json:"id" jsonschema:"membership identifier"`
	UserID      string `json:"user_id" jsonschema:"member user identifier"`
	DisplayName string `json:"display_name" jsonschema:"member display name"`
	Role        string `json:"role" jsonschema:"team role"`
	Status      string `json:"status" jsonschema:"membership status"`
	RequestedAt string `json:"requested_at" jsonschema:"seat request timestamp"`
	ApprovedAt  string `json:"approved_at,omitempty" jsonschema:"seat approval timestamp"`
}

// TeamListPayload represents the MCP resource payload for the team roster.
type TeamListPayload struct {
	Members []TeamMemberEntry `json:"members"`
}

// ApproveCoEditorInput represents the MCP tool input for approving a co-editor.
type ApproveCoEditorInput struct {
	MemberID string `json:"member_id" jsonschema:"membership identifier (required)"`
}

// ApproveCoEditorResult represents the MCP tool output for approving a co-editor.
type ApproveCoEditorResult struct {
	Member TeamMemberEntry `json:"member" jsonschema:"the approved membership"`
}

// RemoveCoEditorInput represents the MCP tool input for removing a co-editor.
type RemoveCoEditorInput struct {
	MemberID string `json:"member_id" jsonschema:"membership identifier (required)"`
}

// RemoveCoEditorResult represents the MCP tool output for removing a co-editor.
type RemoveCoEditorResult struct {
	Removed bool `json:"removed" jsonschema:"whether the seat was freed"`
}

// ApproveCoEditorTool defines the MCP tool schema for approving co-editors.
func ApproveCoEditorTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "team_approve_co_editor",
		Description: "Approves a pending co-editor seat request; only the kingdom owner may approve",
	}
}

// RemoveCoEditorTool defines the MCP tool schema for removing co-editors.
func RemoveCoEditorTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "team_remove_co_editor",
		Description: "Removes a co-editor from the team, freeing a seat; only the kingdom owner may remove",
	}
}

// TeamListResource defines the MCP resource for the team roster.
func TeamListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "team_members",
		Title:       "Editorial Team",
		Description: "Readable roster of the kingdom's editorial team",
		MIMEType:    "application/json",
		URI:         "team://members",
	}
}

// ApproveCoEditorHandler executes a co-editor approval.
func ApproveCoEditorHandler(board Dashboard) mcp.ToolHandlerFor[ApproveCoEditorInput, ApproveCoEditorResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApproveCoEditorInput) (*mcp.CallToolResult, ApproveCoEditorResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		memberID := strings.TrimSpace(input.MemberID)
		if memberID == "" {
			return nil, ApproveCoEditorResult{}, fmt.Errorf("member_id is required")
		}

		member, err := board.ApproveCoEditor(runCtx, memberID)
		if err != nil {
			return nil, ApproveCoEditorResult{}, fmt.Errorf("co-editor approval failed: %w", err)
		}

		return nil, ApproveCoEditorResult{Member: teamMemberEntry(member)}, nil
	}
}

// RemoveCoEditorHandler executes a co-editor removal.
func RemoveCoEditorHandler(board Dashboard) mcp.ToolHandlerFor[RemoveCoEditorInput, RemoveCoEditorResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RemoveCoEditorInput) (*mcp.CallToolResult, RemoveCoEditorResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		memberID := strings.TrimSpace(input.MemberID)
		if memberID == "" {
			return nil, RemoveCoEditorResult{}, fmt.Errorf("member_id is required")
		}

		if err := board.RemoveCoEditor(runCtx, memberID); err != nil {
			return nil, RemoveCoEditorResult{}, fmt.Errorf("co-editor removal failed: %w", err)
		}

		return nil, RemoveCoEditorResult{Removed: true}, nil
	}
}

// TeamListResourceHandler serves the team roster as a readable resource.
func TeamListResourceHandler(board Dashboard) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if board == nil {
			return nil, fmt.Errorf("dashboard session is not configured")
		}

		uri := TeamListResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		snapshot, err := board.Read(runCtx)
		if err != nil {
			return nil, fmt.Errorf("read snapshot failed: %w", err)
		}

		payload := TeamListPayload{Members: []TeamMemberEntry{}}
		for _, member := range snapshot.Team {
			payload.Members = append(payload.Members, teamMemberEntry(member))
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal team roster: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

// teamMemberEntry maps a team member onto its MCP representation.
func teamMemberEntry(member team.Member) TeamMemberEntry {
	return TeamMemberEntry{
		ID:          member.ID,
		UserID:      member.UserID,
		DisplayName: member.DisplayName,
		Role:        team.RoleLabel(member.Role),
		Status:      team.MemberStatusLabel(member.Status),
		RequestedAt: formatTime(member.RequestedAt),
		ApprovedAt:  formatTimePointer(member.ApprovedAt),
	}
}
