package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Application errors
	CodeApplicationEmptyID                Code = "APPLICATION_EMPTY_ID"
	CodeApplicationEmptyKingdomID         Code = "APPLICATION_EMPTY_KINGDOM_ID"
	CodeApplicationInvalidStatus          Code = "APPLICATION_INVALID_STATUS"
	CodeApplicationInvalidStatusTransition Code = "APPLICATION_INVALID_STATUS_TRANSITION"
	CodeApplicationUpdateInFlight         Code = "APPLICATION_UPDATE_IN_FLIGHT"

	// Team errors
	CodeTeamEmptyKingdomID      Code = "TEAM_EMPTY_KINGDOM_ID"
	CodeTeamEmptyUserID         Code = "TEAM_EMPTY_USER_ID"
	CodeTeamInvalidRole         Code = "TEAM_INVALID_ROLE"
	CodeTeamCoEditorCapReached  Code = "TEAM_CO_EDITOR_CAP_REACHED"
	CodeTeamRequestNotPending   Code = "TEAM_REQUEST_NOT_PENDING"
	CodeTeamOwnerRequired       Code = "TEAM_OWNER_REQUIRED"
	CodeTeamOwnerNotRemovable   Code = "TEAM_OWNER_NOT_REMOVABLE"

	// Fund errors
	CodeFundInvalidTier          Code = "FUND_INVALID_TIER"
	CodeFundInviteBudgetExceeded Code = "FUND_INVITE_BUDGET_EXCEEDED"

	// Transferee/watchlist errors
	CodeTransfereeEmptyID    Code = "TRANSFEREE_EMPTY_ID"
	CodeWatchlistEmptyUserID Code = "WATCHLIST_EMPTY_USER_ID"

	// Notification errors
	CodeNotificationEmptyRecipient Code = "NOTIFICATION_EMPTY_RECIPIENT"
	CodeNotificationEmptyTopic     Code = "NOTIFICATION_EMPTY_TOPIC"

	// Dashboard errors
	CodeDashboardEmptyUserID    Code = "DASHBOARD_EMPTY_USER_ID"
	CodeDashboardBulkInProgress Code = "DASHBOARD_BULK_IN_PROGRESS"
	CodeDashboardBulkEmptySet   Code = "DASHBOARD_BULK_EMPTY_SET"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"
)
