package domain

import "time"

// Usage record labels distinguishing the main generation call from the
// synopsis sub-call. The billing collaborator receives one record per call.
const (
	UsageLabelAnswer   = "answer"
	UsageLabelSynopsis = "synopsis"
)

// QueryRecord is the "query started" event emitted once per orchestration
// run. The persistence collaborator owns durability.
type QueryRecord struct {
	QueryID        string    `json:"query_id"`
	ConversationID *string   `json:"conversation_id,omitempty"`
	Message        string    `json:"message"`
	Services       []string  `json:"services"`
	UseWebSearch   bool      `json:"use_web_search"`
	StartedAt      time.Time `json:"started_at"`
}

// UsageRecord is one normalized usage/cost event. The synopsis sub-call
// re-bills the same provider and model as the main call and is reported as
// its own record.
type UsageRecord struct {
	QueryID        string    `json:"query_id"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	Label          string    `json:"label"` // UsageLabelAnswer or UsageLabelSynopsis
	InputTokens    int64     `json:"input_tokens"`
	OutputTokens   int64     `json:"output_tokens"`
	CostMilliCents int64     `json:"cost_milli_cents"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// TotalTokens is the billing total for this record.
func (r *UsageRecord) TotalTokens() int64 { return r.InputTokens + r.OutputTokens }
