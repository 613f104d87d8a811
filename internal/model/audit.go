package model

import "time"

// Audit action constants recorded by the rank pipeline.
const (
	AuditActionPromote = "PROMOTE"
	AuditActionDemote  = "DEMOTE"
	AuditActionSetRank = "SET_RANK"
)

// AuditEntry is one immutable record of a privileged operation outcome.
type AuditEntry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	SubjectID    string    `json:"subject_id"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	OriginatorIP string    `json:"originator_ip,omitempty"`
}

// AuditFilter narrows an audit query before pagination is applied.
type AuditFilter struct {
	Action    string
	Success   *bool
	SubjectID string
	Limit     int
	Offset    int
}

// AuditPage is one page of filtered audit entries, newest first.
type AuditPage struct {
	Entries []*AuditEntry `json:"entries"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

// AuditStats aggregates outcome counts over the retained entries.
type AuditStats struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	ByAction   map[string]int `json:"by_action"`
}
