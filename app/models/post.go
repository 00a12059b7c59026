package models

import (
	"errors"
	"strings"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.CoverImage = strings.TrimSpace(p.CoverImage)
	p.DestinationURL = strings.TrimSpace(p.DestinationURL)
	p.Tags = NormalizeTags(p.Tags)
}

// MarkNotified records a successful delivery to the channel.
func (p *Post) MarkNotified(at time.Time) {
	p.Notified = true
	p.NotifiedAt = &at
}
