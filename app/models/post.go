package models

import (
	"errors"
	"time"
)

// ErrMissingFields is returned when a post is missing its title or contents.
var ErrMissingFields = errors.New("title and contents are required")

// Validate checks that both title and contents are present.
func (in PostInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return ErrMissingFields
	}
	return nil
}

// NewPost builds a post from input, stamping both timestamps.
func NewPost(id int64, in PostInput) *Post {
	now := time.Now().UTC()
	return &Post{
		ID:        id,
		Title:     in.Title,
		Contents:  in.Contents,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply overwrites the post's fields with input. The ID and creation time are kept.
func (p *Post) Apply(in PostInput) {
	p.Title = in.Title
	p.Contents = in.Contents
	p.UpdatedAt = time.Now().UTC()
}
