package models

import "time"

const DefaultTier = "free"

type Balance struct {
	UserID           string    `json:"userId"`
	TokensRemaining  int64     `json:"tokensRemaining"`
	SubscriptionTier string    `json:"subscriptionTier"`
	LastUpdatedAt    time.Time `json:"lastUpdatedAt"`
}

// DebitResult is the outcome of a conditional debit. When OK is false the
// balance was left untouched and Balance holds the value that was too low.
type DebitResult struct {
	OK      bool
	Balance int64
}
