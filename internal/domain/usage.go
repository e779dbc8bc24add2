package domain

// UsageRecord is one persisted ledger entry for a completed chat call.
type UsageRecord struct {
	PK            string
	SK            string
	CompletionID  string
	CorrelationID string
	Model         string
	StopReason    string
	InputTokens   int
	OutputTokens  int
	CreatedAt     string
	TTL           int64
}
