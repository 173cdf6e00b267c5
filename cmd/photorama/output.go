package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/photoramax/photorama/internal/domain"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeStructured encodes payload as JSON or YAML.
func writeStructured(w io.Writer, format string, payload any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writePhotoList(w io.Writer, photos []*domain.Photo) error {
	for _, p := range photos {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		if err := writePlain(w, "%s  %s  %s\n", p.ID, formatTime(p.DateTaken), title); err != nil {
			return err
		}
	}
	return nil
}

func writeTagList(w io.Writer, tags []*domain.Tag) error {
	for _, t := range tags {
		if err := writePlain(w, "%s  %s\n", t.ID, t.Name); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
