package domain

import "time"

// DocumentAction names what happened to a document in its activity trail.
type DocumentAction string

const (
	ActionUploaded   DocumentAction = "uploaded"
	ActionUpdated    DocumentAction = "updated"
	ActionDownloaded DocumentAction = "downloaded"
	ActionDeleted    DocumentAction = "deleted"
)

// DocumentEvent is one entry of a document's activity trail.
type DocumentEvent struct {
	DocumentID int64          `json:"document_id"`
	Action     DocumentAction `json:"action"`
	ActorID    int64          `json:"actor_id"`
	ActorName  string         `json:"actor"`
	Timestamp  time.Time      `json:"timestamp"`
	Details    string         `json:"details,omitempty"`
}
