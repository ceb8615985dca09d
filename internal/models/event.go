package models

import "time"

// Fund event types published to Kafka.
const (
	EventFundAdded        = "FUND_ADDED"
	EventFundIngested     = "FUND_INGESTED"
	EventFundIngestFailed = "FUND_INGEST_FAILED"
)

// FundEvent is the Kafka payload for fund lifecycle and ingestion outcomes.
type FundEvent struct {
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Fund      *Fund     `json:"fund,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
