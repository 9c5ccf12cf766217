package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/analytics"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
)

// OverviewInput represents the MCP tool input for the dashboard overview.
type OverviewInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"bypass the cached snapshot and refetch first"`
}

// OverviewWeek represents one ISO week of application volume.
type OverviewWeek struct {
	Year  int `json:"year" jsonschema:"ISO year"`
	Week  int `json:"week" jsonschema:"ISO week number"`
	Count int `json:"count" jsonschema:"applications applied that week"`
}

// OverviewResult represents the MCP tool output for the dashboard overview.
type OverviewResult struct {
	Kingdom          string         `json:"kingdom" jsonschema:"kingdom name"`
	Recruiter        string         `json:"recruiter" jsonschema:"recruiter display name"`
	Role             string         `json:"role" jsonschema:"recruiter team role"`
	StatusCounts     map[string]int `json:"status_counts" jsonschema:"application counts per status"`
	ResponseRate     float64        `json:"response_rate" jsonschema:"share of applications answered"`
	AcceptRate       float64        `json:"accept_rate" jsonschema:"share of applications accepted"`
	ResponseP50Hours float64        `json:"response_p50_hours" jsonschema:"median applied-to-responded hours"`
	ResponseP90Hours float64        `json:"response_p90_hours" jsonschema:"90th percentile applied-to-responded hours"`
	WeeklyVolume     []OverviewWeek `json:"weekly_volume" jsonschema:"applications per ISO week"`
	UnreadTotal      int            `json:"unread_total" jsonschema:"unread messages across all applications"`
	FundTier         string         `json:"fund_tier" jsonschema:"recruitment fund tier"`
	InvitesUsed      int            `json:"invites_used" jsonschema:"outbound invites used this season"`
	InvitesRemaining int            `json:"invites_remaining" jsonschema:"outbound invites left this season"`
	OnboardingDone   bool           `json:"onboarding_done" jsonschema:"whether the recruiter finished onboarding"`
	FetchedAt        string         `json:"fetched_at" jsonschema:"snapshot fetch timestamp"`
}

// OverviewTool defines the MCP tool schema for the dashboard overview.
func OverviewTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "dashboard_overview",
		Description: "Summarizes the recruiter dashboard: funnel rates, response times, weekly volume, unread messages, and invite budget",
	}
}

// SnapshotResource defines the MCP resource for the raw dashboard snapshot.
func SnapshotResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "dashboard_snapshot",
		Title:       "Dashboard Snapshot",
		Description: "The full cached recruiter dashboard snapshot",
		MIMEType:    "application/json",
		URI:         "dashboard://snapshot",
	}
}

// OverviewHandler computes dashboard metrics from the current snapshot.
func OverviewHandler(board Dashboard) mcp.ToolHandlerFor[OverviewInput, OverviewResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OverviewInput) (*mcp.CallToolResult, OverviewResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		read := board.Read
		if input.Refresh {
			read = board.Refresh
		}
		snapshot, err := read(runCtx)
		if err != nil {
			return nil, OverviewResult{}, fmt.Errorf("dashboard overview failed: %w", err)
		}

		onboarding, err := board.OnboardingComplete(runCtx)
		if err != nil {
			return nil, OverviewResult{}, fmt.Errorf("read onboarding state: %w", err)
		}

		conversion := analytics.ConversionRates(snapshot.Applications)
		responseTimes := analytics.ResponseTimePercentiles(snapshot.Applications)

		result := OverviewResult{
			Kingdom:          snapshot.Editor.KingdomName,
			Recruiter:        snapshot.Editor.DisplayName,
			Role:             team.RoleLabel(snapshot.Editor.Role),
			StatusCounts:     analytics.StatusCounts(snapshot.Applications),
			ResponseRate:     conversion.ResponseRate,
			AcceptRate:       conversion.AcceptRate,
			ResponseP50Hours: responseTimes.P50.Hours(),
			ResponseP90Hours: responseTimes.P90.Hours(),
			UnreadTotal:      analytics.TotalUnread(snapshot.Unread),
			FundTier:         fund.TierLabel(snapshot.Fund.Tier),
			InvitesUsed:      snapshot.Fund.InvitesUsed,
			InvitesRemaining: fund.RemainingInvites(snapshot.Fund),
			OnboardingDone:   onboarding,
			FetchedAt:        formatTime(snapshot.FetchedAt),
		}
		for _, bucket := range analytics.WeeklyBuckets(snapshot.Applications) {
			result.WeeklyVolume = append(result.WeeklyVolume, OverviewWeek{
				Year:  bucket.Year,
				Week:  bucket.Week,
				Count: bucket.Count,
			})
		}

		return nil, result, nil
	}
}

// SnapshotResourceHandler serves the cached snapshot as a readable resource.
func SnapshotResourceHandler(board Dashboard) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if board == nil {
			return nil, fmt.Errorf("dashboard session is not configured")
		}

		uri := SnapshotResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		snapshot, err := board.Read(runCtx)
		if err != nil {
			return nil, fmt.Errorf("read snapshot failed: %w", err)
		}

		payload := ApplicationListResult{Applications: []ApplicationEntry{}}
		for _, app := range snapshot.Applications {
			payload.Applications = append(payload.Applications, applicationEntry(app, snapshot.Unread[app.ID]))
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
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
