package domain

import "time"

// Pipeline routes recorded in the journal and exported as metric labels.
const (
	RouteGreeting       = "greeting"
	RouteHelp           = "help"
	RouteTime           = "time"
	RouteSearchCommand  = "search_command"
	RouteSearchGrounded = "search_grounded"
	RouteDirect         = "direct"
	RouteFallback       = "fallback"
)

// JournalEntry is one processed inbound message as recorded in the audit
// journal. Entries are append-only and never feed back into reply
// generation.
type JournalEntry struct {
	ID          int64     `json:"id"`
	MessageID   string    `json:"message_id"`
	UserText    string    `json:"user_text"`
	Route       string    `json:"route"`
	Query       string    `json:"query,omitempty"`
	ResultCount int       `json:"result_count"`
	ReplyChars  int       `json:"reply_chars"`
	LatencyMS   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
