package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kingsroad.gg/internal/mcp/domain"
)

func registerApplicationTools(mcpServer *mcp.Server, board domain.Dashboard) {
	mcp.AddTool(mcpServer, domain.OverviewTool(), domain.OverviewHandler(board))
	mcp.AddTool(mcpServer, domain.ApplicationListTool(), domain.ApplicationListHandler(board))
	mcp.AddTool(mcpServer, domain.ApplicationStatusTool(), domain.ApplicationStatusHandler(board))
	mcp.AddTool(mcpServer, domain.ApplicationBulkStatusTool(), domain.ApplicationBulkStatusHandler(board))
	mcp.AddTool(mcpServer, domain.ApplicationMarkReadTool(), domain.ApplicationMarkReadHandler(board))
}

func registerTeamTools(mcpServer *mcp.Server, board domain.Dashboard) {
	mcp.AddTool(mcpServer, domain.ApproveCoEditorTool(), domain.ApproveCoEditorHandler(board))
	mcp.AddTool(mcpServer, domain.RemoveCoEditorTool(), domain.RemoveCoEditorHandler(board))
	mcp.AddTool(mcpServer, domain.SendInviteTool(), domain.SendInviteHandler(board))
	mcp.AddTool(mcpServer, domain.SetOnboardingTool(), domain.SetOnboardingHandler(board))
}

func registerMarketTools(mcpServer *mcp.Server, board domain.Dashboard) {
	mcp.AddTool(mcpServer, domain.TransfereeListTool(), domain.TransfereeListHandler(board))
	mcp.AddTool(mcpServer, domain.WatchlistAddTool(), domain.WatchlistAddHandler(board))
	mcp.AddTool(mcpServer, domain.WatchlistRemoveTool(), domain.WatchlistRemoveHandler(board))
}

// registerDashboardResources registers readable dashboard MCP resources.
func registerDashboardResources(mcpServer *mcp.Server, board domain.Dashboard) {
	mcpServer.AddResource(domain.SnapshotResource(), domain.SnapshotResourceHandler(board))
	mcpServer.AddResource(domain.TeamListResource(), domain.TeamListResourceHandler(board))
	mcpServer.AddResource(domain.WatchlistResource(), domain.WatchlistResourceHandler(board))
}
