package models

import "time"

// Generation is one billed generation. Records are immutable; they are only
// ever created or deleted.
type Generation struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user"`
	ContentType ContentType `json:"contentType"`
	Prompt      string      `json:"prompt"`
	Output      string      `json:"output"`
	TokensUsed  int64       `json:"tokensUsed"`
	Model       string      `json:"model"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type TypeCount struct {
	ContentType ContentType `json:"contentType"`
	Count       int64       `json:"count"`
}

// Usage is an owner's record-derived totals taken from one consistent read.
type Usage struct {
	Count  int64
	Tokens int64
	ByType map[ContentType]int64
}

type Stats struct {
	TotalGenerations  int64       `json:"totalGenerations"`
	TotalTokensUsed   int64       `json:"totalTokensUsed"`
	TokensRemaining   int64       `json:"tokensRemaining"`
	SubscriptionTier  string      `json:"subscriptionTier"`
	GenerationsByType []TypeCount `json:"generationsByType"`
}
