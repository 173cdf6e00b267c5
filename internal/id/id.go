// Package id generates identifiers for locally created entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TagPrefix prefixes every tag identifier.
const TagPrefix = "tag"

// Generate returns prefix + "-" + a 21 character NanoID,
// e.g. "tag-V1StGXR8_Z5jdHi6B-myT".
//
// Photos never use this: their identifier comes from the remote listing.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// NewTagID returns a fresh tag identifier.
func NewTagID() (string, error) {
	return Generate(TagPrefix)
}
