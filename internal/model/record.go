package model

import (
	"fmt"
	"time"
)

type EntityType string

const (
	EntityTypePullRequest EntityType = "pull_request"
	EntityTypeIssue       EntityType = "issues"
)

// Lifecycle actions we care about. Webhooks carry many more; the record
// simply stores whatever the latest payload said.
const ActionOpened = "opened"

// RecordID derives the canonical record id for an upstream entity.
// The id doubles as the idempotency key on the ingest path.
func RecordID(entityType EntityType, upstreamID int64) string {
	if entityType == EntityTypePullRequest {
		return fmt.Sprintf("pr_%d", upstreamID)
	}
	return fmt.Sprintf("issue_%d", upstreamID)
}

// Record is the canonical stored representation of one tracked pull
// request or issue. One record per id; refreshed in place on every
// ingest, created_at pinned to the first observed ingest.
type Record struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"event_type"`
	Action     string     `json:"action"`
	Repository string     `json:"repository"`
	Sender     string     `json:"sender"`
	Number     int64      `json:"number"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`

	Assignee     *string `json:"assignee,omitempty"`
	Organization *string `json:"organization,omitempty"`
	DiffURL      *string `json:"diff_url,omitempty"`

	CreatedAt        time.Time `json:"created_at"`
	CreatedTimestamp int64     `json:"created_timestamp"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
}
