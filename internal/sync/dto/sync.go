package dto

import (
	articledomain "feedbox-backend/internal/article/domain"
	syncdomain "feedbox-backend/internal/sync/domain"
)

// EnqueueChangeRequest is the change-ingestion entry point payload
type EnqueueChangeRequest struct {
	LocalArticleID  string `json:"local_article_id"`
	RemoteArticleID string `json:"remote_article_id" binding:"required"`
	ActionKind      string `json:"action_kind" binding:"required"`
}

// TriggerSyncResponse returns the run id to poll for progress
type TriggerSyncResponse struct {
	RunID   string `json:"run_id"`
	Started bool   `json:"started"`
}

// QueueResponse lists the change queue for operator inspection
type QueueResponse struct {
	Changes []syncdomain.PendingChange `json:"changes"`
	Total   int                        `json:"total"`
	Stuck   int                        `json:"stuck"`
}

// ResetStuckRequest names the rows to unstick
type ResetStuckRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// SnapshotsRequest carries downlink-fetched article snapshots
type SnapshotsRequest struct {
	Snapshots []articledomain.Snapshot `json:"snapshots" binding:"required"`
}

// SnapshotsResponse reports the overwrite filter's outcome
type SnapshotsResponse struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// DownlinkCompletedRequest is the "sync just completed" hook payload.
// LastSyncUpdate defaults to the current time when omitted.
type DownlinkCompletedRequest struct {
	LastSyncUpdate string `json:"last_sync_update,omitempty"` // RFC3339
	RunID          string `json:"run_id,omitempty"`
}

// DownlinkCompletedResponse reports the uplink tick fired by the hook
type DownlinkCompletedResponse struct {
	UplinkRunID string `json:"uplink_run_id,omitempty"`
}

// RegisterTokenRequest registers an FCM device token for operator alerts
type RegisterTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
