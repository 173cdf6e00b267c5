package flickr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/photoramax/photorama/internal/domain"
	domainerrors "github.com/photoramax/photorama/internal/errors"
	"github.com/photoramax/photorama/internal/validation"
)

var errMissingField = errors.New("missing field")

// Parser turns a listing payload into photo descriptors. It is pure and safe
// for concurrent use.
type Parser struct {
	location  *time.Location
	validator *validation.Validator
	logger    *slog.Logger
}

// NewParser creates a parser that interprets datetaken in loc (UTC when nil).
func NewParser(loc *time.Location, v *validation.Validator, logger *slog.Logger) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	if v == nil {
		v = validation.New()
	}
	return &Parser{location: loc, validator: v, logger: logger}
}

// Parse extracts descriptors from data.
//
// A payload without a photos object or photo array is invalid. Records that
// fail to parse are dropped individually; if every record of a non-empty array
// is dropped, the whole payload is invalid. An empty array yields an empty,
// successful result.
func (p *Parser) Parse(data []byte) ([]domain.PhotoDescriptor, error) {
	var resp listingResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInvalidData, "listing is not valid JSON")
	}

	if resp.Stat == "fail" {
		return nil, domainerrors.InvalidDataf("listing request failed: %s (code %d)", resp.Message, resp.Code)
	}

	if isAbsent(resp.Photos) {
		return nil, domainerrors.InvalidData("listing has no photos object")
	}
	var page listingPage
	if err := json.Unmarshal(resp.Photos, &page); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInvalidData, "listing photos is not an object")
	}

	if isAbsent(page.Records) {
		return nil, domainerrors.InvalidData("listing has no photo array")
	}
	var records []json.RawMessage
	if err := json.Unmarshal(page.Records, &records); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInvalidData, "listing photo is not an array")
	}

	descriptors := make([]domain.PhotoDescriptor, 0, len(records))
	for i, raw := range records {
		d, err := p.parseRecord(raw)
		if err != nil {
			p.logger.Debug("dropping listing record", "index", i, "error", err)
			continue
		}
		descriptors = append(descriptors, d)
	}

	if len(records) > 0 && len(descriptors) == 0 {
		return nil, domainerrors.InvalidDataf("none of %d listing records could be parsed", len(records))
	}

	if dropped := len(records) - len(descriptors); dropped > 0 {
		p.logger.Warn("listing records dropped", "parsed", len(descriptors), "dropped", dropped)
	}

	return descriptors, nil
}

func (p *Parser) parseRecord(raw json.RawMessage) (domain.PhotoDescriptor, error) {
	var rec listingRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.PhotoDescriptor{}, fmt.Errorf("decode record: %w", err)
	}

	switch {
	case rec.ID == nil:
		return domain.PhotoDescriptor{}, fmt.Errorf("id: %w", errMissingField)
	case rec.Title == nil:
		return domain.PhotoDescriptor{}, fmt.Errorf("title: %w", errMissingField)
	case rec.DateTaken == nil:
		return domain.PhotoDescriptor{}, fmt.Errorf("datetaken: %w", errMissingField)
	case rec.URLH == nil:
		return domain.PhotoDescriptor{}, fmt.Errorf("url_h: %w", errMissingField)
	}

	taken, err := time.ParseInLocation(DateTakenLayout, *rec.DateTaken, p.location)
	if err != nil {
		return domain.PhotoDescriptor{}, fmt.Errorf("datetaken: %w", err)
	}

	d := domain.PhotoDescriptor{
		ID:        *rec.ID,
		Title:     *rec.Title,
		DateTaken: taken,
		RemoteURL: *rec.URLH,
	}
	if err := p.validator.Validate(d); err != nil {
		return domain.PhotoDescriptor{}, err
	}
	return d, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
