package model

import (
	"strconv"
	"time"
)

// Embed colors for webhook notifications.
const (
	ColorGreen  = 0x2ecc71
	ColorRed    = 0xe74c3c
	ColorOrange = 0xe67e22
)

// WebhookPayload is the JSON body POSTed to the configured webhook sink.
type WebhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

// Embed is a single rich-content block in a webhook payload.
type Embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []EmbedField `json:"fields,omitempty"`
	Timestamp string       `json:"timestamp"`
	Footer    *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// RankChangedEvent describes a completed rank change for notification.
type RankChangedEvent struct {
	Action    string
	SubjectID string
	OldRank   int
	NewRank   int
	ChangedAt time.Time
}

// NewRankChangedPayload builds the webhook payload for a rank change.
func NewRankChangedPayload(ev *RankChangedEvent) *WebhookPayload {
	return &WebhookPayload{
		Embeds: []Embed{{
			Title: "Rank changed",
			Color: ColorGreen,
			Fields: []EmbedField{
				{Name: "Action", Value: ev.Action, Inline: true},
				{Name: "Subject", Value: ev.SubjectID, Inline: true},
				{Name: "Rank", Value: formatRankTransition(ev.OldRank, ev.NewRank), Inline: true},
			},
			Timestamp: ev.ChangedAt.UTC().Format(time.RFC3339),
			Footer:    &EmbedFooter{Text: "RankGate"},
		}},
	}
}

// NewSessionAlertPayload builds the webhook payload for a session health
// transition. Recovery alerts are green, failures red.
func NewSessionAlertPayload(status SessionStatus, reason string, at time.Time) *WebhookPayload {
	color := ColorRed
	title := "Upstream session unhealthy"
	if status == SessionRecovered {
		color = ColorGreen
		title = "Upstream session recovered"
	}

	fields := []EmbedField{
		{Name: "Status", Value: string(status), Inline: true},
	}
	if reason != "" {
		fields = append(fields, EmbedField{Name: "Reason", Value: reason, Inline: false})
	}

	return &WebhookPayload{
		Embeds: []Embed{{
			Title:     title,
			Color:     color,
			Fields:    fields,
			Timestamp: at.UTC().Format(time.RFC3339),
			Footer:    &EmbedFooter{Text: "RankGate session monitor"},
		}},
	}
}

func formatRankTransition(oldRank, newRank int) string {
	if oldRank == 0 {
		return strconv.Itoa(newRank)
	}
	return strconv.Itoa(oldRank) + " -> " + strconv.Itoa(newRank)
}
