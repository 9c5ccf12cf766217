package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// OnboardingInput represents the MCP tool input for the onboarding flag.
type OnboardingInput struct {
	Done bool `json:"done" jsonschema:"whether onboarding is complete"`
}

// OnboardingResult represents the MCP tool output for the onboarding flag.
type OnboardingResult struct {
	Done bool `json:"done" jsonschema:"the stored onboarding state"`
}

// SetOnboardingTool defines the MCP tool schema for the onboarding flag.
func SetOnboardingTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "onboarding_set",
		Description: "Records whether the recruiter has completed dashboard onboarding",
	}
}

// SetOnboardingHandler persists the onboarding flag.
func SetOnboardingHandler(board Dashboard) mcp.ToolHandlerFor[OnboardingInput, OnboardingResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OnboardingInput) (*mcp.CallToolResult, OnboardingResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		if err := board.SetOnboardingComplete(runCtx, input.Done); err != nil {
			return nil, OnboardingResult{}, fmt.Errorf("set onboarding failed: %w", err)
		}

		return nil, OnboardingResult{Done: input.Done}, nil
	}
}
