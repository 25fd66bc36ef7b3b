package model

import "time"

type ChangeKind string

const (
	ChangeKindCreated  ChangeKind = "created"
	ChangeKindModified ChangeKind = "modified"
)

// ChangeEvent notifies consumers that a record was written. It carries
// the post-write record image so the workflow never has to read the
// store. Delivery is at-least-once; ordering is only best-effort across
// distinct record ids.
type ChangeEvent struct {
	ID         int64      `json:"id"`
	Kind       ChangeKind `json:"kind"`
	Record     Record     `json:"record"`
	OccurredAt time.Time  `json:"occurred_at"`
}
