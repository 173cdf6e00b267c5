// Package flickr fetches the remote photo listing and image bytes, and turns the
// listing payload into photo descriptors.
package flickr

import "encoding/json"

// DateTakenLayout is the layout of the listing's datetaken field.
const DateTakenLayout = "2006-01-02 15:04:05"

// listingResponse is the envelope of a listing payload.
// Photos stays raw so its shape can be checked before records are decoded.
type listingResponse struct {
	Photos  json.RawMessage `json:"photos"`
	Stat    string          `json:"stat"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
}

// listingPage is the "photos" object.
type listingPage struct {
	Records json.RawMessage `json:"photo"`
}

// listingRecord is a single listing entry. Pointers tell a missing field apart
// from an empty one.
type listingRecord struct {
	ID        *string `json:"id"`
	Title     *string `json:"title"`
	DateTaken *string `json:"datetaken"`
	URLH      *string `json:"url_h"`
}
