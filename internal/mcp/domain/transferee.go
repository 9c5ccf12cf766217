package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/transferee"
)

// TransfereeEntry represents one transfer-market candidate in MCP output.
type TransfereeEntry struct {
	ID          string `json:"id" jsonschema:"transferee identifier"`
	DisplayName string `json:"display_name" jsonschema:"candidate display name"`
	Kingdom     string `json:"kingdom" jsonschema:"candidate's current kingdom"`
	Power       int64  `json:"power" jsonschema:"candidate power"`
	TCLevel     int    `json:"tc_level" jsonschema:"candidate town center level"`
	Contact     string `json:"contact,omitempty" jsonschema:"contact handle when visible"`
	Anonymous   bool   `json:"anonymous" jsonschema:"whether the candidate hides contact details"`
}

// TransfereeListInput represents the MCP tool input for listing transferees.
type TransfereeListInput struct{}

// TransfereeListResult represents the MCP tool output for listing transferees.
type TransfereeListResult struct {
	Transferees []TransfereeEntry `json:"transferees" jsonschema:"transfer-market candidates"`
}

// WatchlistEntryOutput represents one watchlist entry in MCP output.
type WatchlistEntryOutput struct {
	ID           string `json:"id" jsonschema:"watchlist entry identifier"`
	TransfereeID string `json:"transferee_id" jsonschema:"watched transferee identifier"`
	Note         string `json:"note,omitempty" jsonschema:"private recruiter note"`
	AddedAt      string `json:"added_at" jsonschema:"watchlist add timestamp"`
}

// WatchlistPayload represents the MCP resource payload for the watchlist.
type WatchlistPayload struct {
	Entries []WatchlistEntryOutput `json:"entries"`
}

// WatchlistAddInput represents the MCP tool input for watching a transferee.
type WatchlistAddInput struct {
	TransfereeID string `json:"transferee_id" jsonschema:"transferee identifier (required)"`
	Note         string `json:"note,omitempty" jsonschema:"optional private note"`
}

// WatchlistAddResult represents the MCP tool output for watching a transferee.
type WatchlistAddResult struct {
	Entry WatchlistEntryOutput `json:"entry" jsonschema:"the created watchlist entry"`
}

// WatchlistRemoveInput represents the MCP tool input for unwatching a transferee.
type WatchlistRemoveInput struct {
	TransfereeID string `json:"transferee_id" jsonschema:"transferee identifier (required)"`
}

// WatchlistRemoveResult represents the MCP tool output for unwatching a transferee.
type WatchlistRemoveResult struct {
	Removed bool `json:"removed" jsonschema:"whether the entry was removed"`
}

// TransfereeListTool defines the MCP tool schema for listing transferees.
func TransfereeListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "transferee_list",
		Description: "Lists transfer-market candidates; anonymous candidates have contact details redacted",
	}
}

// WatchlistAddTool defines the MCP tool schema for watching a transferee.
func WatchlistAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "watchlist_add",
		Description: "Adds a transferee to the recruiter's private watchlist",
	}
}

// WatchlistRemoveTool defines the MCP tool schema for unwatching a transferee.
func WatchlistRemoveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "watchlist_remove",
		Description: "Removes a transferee from the recruiter's private watchlist",
	}
}

// WatchlistResource defines the MCP resource for the recruiter watchlist.
func WatchlistResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "watchlist",
		Title:       "Watchlist",
		Description: "Readable listing of the recruiter's watched transferees",
		MIMEType:    "application/json",
		URI:         "transferees://watchlist",
	}
}

// TransfereeListHandler lists transfer-market candidates.
func TransfereeListHandler(board Dashboard) mcp.ToolHandlerFor[TransfereeListInput, TransfereeListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ TransfereeListInput) (*mcp.CallToolResult, TransfereeListResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		candidates, err := board.Transferees(runCtx)
		if err != nil {
			return nil, TransfereeListResult{}, fmt.Errorf("transferee list failed: %w", err)
		}

		result := TransfereeListResult{Transferees: []TransfereeEntry{}}
		for _, candidate := range candidates {
			result.Transferees = append(result.Transferees, transfereeEntry(candidate))
		}

		return nil, result, nil
	}
}

// WatchlistAddHandler adds a transferee to the watchlist.
func WatchlistAddHandler(board Dashboard) mcp.ToolHandlerFor[WatchlistAddInput, WatchlistAddResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WatchlistAddInput) (*mcp.CallToolResult, WatchlistAddResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		transfereeID := strings.TrimSpace(input.TransfereeID)
		if transfereeID == "" {
			return nil, WatchlistAddResult{}, fmt.Errorf("transferee_id is required")
		}

		entry, err := board.AddToWatchlist(runCtx, transfereeID, input.Note)
		if err != nil {
			return nil, WatchlistAddResult{}, fmt.Errorf("watchlist add failed: %w", err)
		}

		return nil, WatchlistAddResult{Entry: watchlistEntryOutput(entry)}, nil
	}
}

// WatchlistRemoveHandler removes a transferee from the watchlist.
func WatchlistRemoveHandler(board Dashboard) mcp.ToolHandlerFor[WatchlistRemoveInput, WatchlistRemoveResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WatchlistRemoveInput) (*mcp.CallToolResult, WatchlistRemoveResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		transfereeID := strings.TrimSpace(input.TransfereeID)
		if transfereeID == "" {
			return nil, WatchlistRemoveResult{}, fmt.Errorf("transferee_id is required")
		}

		if err := board.RemoveFromWatchlist(runCtx, transfereeID); err != nil {
			return nil, WatchlistRemoveResult{}, fmt.Errorf("watchlist remove failed: %w", err)
		}

		return nil, WatchlistRemoveResult{Removed: true}, nil
	}
}

// WatchlistResourceHandler serves the watchlist as a readable resource.
func WatchlistResourceHandler(board Dashboard) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if board == nil {
			return nil, fmt.Errorf("dashboard session is not configured")
		}

		uri := WatchlistResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		entries, err := board.Watchlist(runCtx)
		if err != nil {
			return nil, fmt.Errorf("watchlist read failed: %w", err)
		}

		payload := WatchlistPayload{Entries: []WatchlistEntryOutput{}}
		for _, entry := range entries {
			payload.Entries = append(payload.Entries, watchlistEntryOutput(entry))
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal watchlist: %w", err)
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

// transfereeEntry maps a transferee onto its MCP representation.
func transfereeEntry(candidate transferee.Transferee) TransfereeEntry {
	return TransfereeEntry{
		ID:          candidate.ID,
		DisplayName: candidate.DisplayName,
		Kingdom:     candidate.Kingdom,
		Power:       candidate.Power,
		TCLevel:     candidate.TCLevel,
		Contact:     candidate.Contact,
		Anonymous:   candidate.Anonymous,
	}
}

// watchlistEntryOutput maps a watchlist entry onto its MCP representation.
func watchlistEntryOutput(entry transferee.WatchlistEntry) WatchlistEntryOutput {
	return WatchlistEntryOutput{
		ID:           entry.ID,
		TransfereeID: entry.TransfereeID,
		Note:         entry.Note,
		AddedAt:      formatTime(entry.AddedAt),
	}
}
