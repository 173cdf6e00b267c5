package domain

import "time"

// Tag is a user-created label that can be attached to any number of photos.
// Names are not unique; two tags may share a name.
type Tag struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name" validate:"required,max=200"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
