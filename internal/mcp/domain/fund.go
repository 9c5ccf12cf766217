package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
)

// SendInviteInput represents the MCP tool input for sending an invite.
type SendInviteInput struct{}

// SendInviteResult represents the MCP tool output for sending an invite.
type SendInviteResult struct {
	Tier             string `json:"tier" jsonschema:"recruitment fund tier"`
	InvitesUsed      int    `json:"invites_used" jsonschema:"outbound invites used this season"`
	InvitesRemaining int    `json:"invites_remaining" jsonschema:"outbound invites left this season"`
}

// SendInviteTool defines the MCP tool schema for sending invites.
func SendInviteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "fund_send_invite",
		Description: "Consumes one outbound invite from the kingdom's seasonal recruitment budget",
	}
}

// SendInviteHandler executes an invite send against the recruitment fund.
func SendInviteHandler(board Dashboard) mcp.ToolHandlerFor[SendInviteInput, SendInviteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SendInviteInput) (*mcp.CallToolResult, SendInviteResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		updated, err := board.SendInvite(runCtx)
		if err != nil {
			return nil, SendInviteResult{}, fmt.Errorf("send invite failed: %w", err)
		}

		return nil, SendInviteResult{
			Tier:             fund.TierLabel(updated.Tier),
			InvitesUsed:      updated.InvitesUsed,
			InvitesRemaining: fund.RemainingInvites(updated),
		}, nil
	}
}
