package models

import "time"

// Post represents a manga release announcement published to the channel.
type Post struct {
	ID             int64      `json:"id" validate:"gte=0"`
	Title          string     `json:"title" validate:"required,max=256"`
	Description    string     `json:"description" validate:"required"`
	Tags           []string   `json:"tags" validate:"dive,required"`
	CoverImage     string     `json:"coverImage" validate:"required,coverimage"`
	DestinationURL string     `json:"destUrl" validate:"required,http_url"`
	IsAdult        bool       `json:"isAdult"`
	CreatedAt      time.Time  `json:"createdAt" validate:"required"`
	Notified       bool       `json:"notified"`
	NotifiedAt     *time.Time `json:"notifiedAt,omitempty"`
}
