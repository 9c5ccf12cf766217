// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// GatewayRequest caps the time allowed for a single remote gateway call
// issued from the dashboard.
const GatewayRequest = 2 * time.Second

// SnapshotRefetch caps a full dashboard snapshot refetch, which fans out
// to several gateway reads.
const SnapshotRefetch = 5 * time.Second

// SubscriptionRetry is the delay before reopening a dropped change-feed
// subscription.
const SubscriptionRetry = time.Second

// Shutdown limits how long a service waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
