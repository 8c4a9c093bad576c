package resale

import (
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/tidwall/gjson"
)

// rawPreviewLimit caps how much of an undecodable payload is quoted in the
// error message.
const rawPreviewLimit = 256

// Status classifies a parsed availability response.
type Status int

const (
	// StatusOffers means the snapshot carries at least one offer.
	StatusOffers Status = iota

	// StatusEmpty means the payload matched the configured empty baseline;
	// there is nothing to process.
	StatusEmpty

	// StatusNoOffers means the payload differs from the baseline but has a
	// missing or empty offers list. Unexpected, but not a fault.
	StatusNoOffers
)

// Result is the outcome of parsing one availability payload.
type Result struct {
	Status   Status
	Snapshot Snapshot

	// Raw keeps the original payload for seat extraction, which needs the
	// document order of JSON object keys.
	Raw []byte
}

// Parser turns raw availability payloads into Results. The baseline is the
// exact value the endpoint returns when a resource has nothing on sale.
type Parser struct {
	baseline interface{}
}

// NewParser builds a Parser with the given empty baseline JSON.
func NewParser(baselineEmpty string) (*Parser, error) {
	var baseline interface{}
	if err := json.Unmarshal([]byte(baselineEmpty), &baseline); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "the empty-availability baseline is not valid JSON")
	}

	return &Parser{baseline: baseline}, nil
}

// Parse decodes one payload.
//
// An undecodable payload yields a ParsingFailed error with a bounded
// preview of the raw bytes. A payload structurally equal to the baseline
// yields StatusEmpty without further work. A payload with no usable offers
// yields StatusNoOffers.
func (p *Parser) Parse(raw []byte) (*Result, error) {
	// The generic decode drives the baseline comparison and doubles as the
	// well-formedness check for the typed decode below.
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("the availability payload is not valid JSON (preview: %s)", previewRaw(raw)))
	}

	if reflect.DeepEqual(generic, p.baseline) {
		return &Result{Status: StatusEmpty, Raw: raw}, nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("the availability payload does not match the expected shape (preview: %s)", previewRaw(raw)))
	}

	if len(snapshot.Offers) == 0 {
		return &Result{Status: StatusNoOffers, Snapshot: snapshot, Raw: raw}, nil
	}

	return &Result{Status: StatusOffers, Snapshot: snapshot, Raw: raw}, nil
}

// CompactRaw renders the payload as whitespace-free JSON bounded to the
// preview limit, for log fields that describe an unexpected document shape.
// A payload that is not valid JSON falls back to the plain preview.
func CompactRaw(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return previewRaw(raw)
	}
	return previewRaw([]byte(gjson.GetBytes(raw, "@ugly").Raw))
}

// previewRaw renders the head of a payload for error messages, keeping the
// cut on a rune boundary.
func previewRaw(raw []byte) string {
	if len(raw) <= rawPreviewLimit {
		return string(raw)
	}

	cut := rawPreviewLimit
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}

	return string(raw[:cut]) + "..."
}
