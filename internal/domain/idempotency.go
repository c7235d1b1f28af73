package domain

import "time"

// IdempotencyRecord deduplicates retried mutating requests for 24 hours.
type IdempotencyRecord struct {
	Key          string    `json:"key" gorm:"primaryKey"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	BodyHash     string    `json:"body_hash"`
	ResponseBody []byte    `json:"response_body"`
	StatusCode   int       `json:"status_code"`
	CreatedAt    time.Time `json:"created_at"`
}

func (IdempotencyRecord) ExpiresAfter() time.Duration {
	return 24 * time.Hour
}
