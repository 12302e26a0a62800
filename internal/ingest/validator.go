// Package ingest implements the agent ingest pipeline: payload validation,
// key resolution, baseline matching and the transactional value upsert.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"
)

// previewLimit caps how much of a rejected body is echoed back in
// diagnostics. Anything beyond this stays out of logs and responses.
const previewLimit = 500

// Entry is one validated (variable, version) pair from an agent payload.
type Entry struct {
	Variable string
	Version  string
}

// Payload is a validated ingest request body.
type Payload struct {
	Key     string
	Entries []Entry
	// InvalidEntries counts list items that failed shape validation. They
	// are reported as a count only, never echoed back.
	InvalidEntries int
}

// ParseError describes why a body was rejected, with enough detail for the
// agent operator to fix their payload and no more.
type ParseError struct {
	Msg     string
	Details string // parser diagnostics (offset, line, column)
	Preview string // truncated raw body
}

func (e *ParseError) Error() string {
	if e.Details != "" {
		return e.Msg + ": " + e.Details
	}
	return e.Msg
}

// ErrUnsupportedMedia is returned for non-JSON content types.
var ErrUnsupportedMedia = &ParseError{Msg: "Content-Type must be application/json"}

// rawEntry accepts both field spellings agents use in the wild.
type rawEntry struct {
	Variable *string `json:"variable"`
	Name     *string `json:"name"`
	Version  *string `json:"version"`
	Value    *string `json:"value"`
}

type rawPayload struct {
	Key      string     `json:"key"`
	Versions []rawEntry `json:"versions"`
	Entries  []rawEntry `json:"entries"`
}

// ParsePayload validates an inbound ingest body. The content type must be
// JSON; the body is sanitized, parsed and shape-checked. headerKey stands in
// for the body's key field when that is absent, so agents may authenticate
// via the X-API-Key header alone. No store access happens here.
func ParsePayload(body []byte, contentType, headerKey string) (*Payload, *ParseError) {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}
	if mediaType != "application/json" {
		return nil, ErrUnsupportedMedia
	}

	cleaned := stripControlChars(body)

	var raw rawPayload
	if err := json.Unmarshal(cleaned, &raw); err != nil {
		return nil, jsonParseError(err, cleaned)
	}

	key := raw.Key
	if key == "" {
		key = headerKey
	}
	if key == "" {
		return nil, &ParseError{Msg: "missing key"}
	}
	list := raw.Versions
	if list == nil {
		list = raw.Entries
	}
	if list == nil {
		return nil, &ParseError{Msg: "missing versions array"}
	}

	p := &Payload{Key: key, Entries: make([]Entry, 0, len(list))}
	for _, e := range list {
		variable := coalesce(e.Variable, e.Name)
		version := coalesce(e.Version, e.Value)
		if variable == nil || *variable == "" || version == nil {
			p.InvalidEntries++
			continue
		}
		p.Entries = append(p.Entries, Entry{Variable: *variable, Version: *version})
	}
	return p, nil
}

// stripControlChars removes C0 control bytes except tab, LF and CR. Some
// agents embed stray control bytes that break strict JSON parsers; the
// transformation is applied before parsing so behavior does not depend on
// any particular parser's leniency.
func stripControlChars(body []byte) []byte {
	cleaned := make([]byte, 0, len(body))
	for _, b := range body {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			continue
		}
		cleaned = append(cleaned, b)
	}
	return cleaned
}

func jsonParseError(err error, body []byte) *ParseError {
	pe := &ParseError{Msg: "invalid JSON", Preview: preview(body)}

	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		line, col := offsetPosition(body, syn.Offset)
		pe.Details = fmt.Sprintf("%s at offset %d (line %d, column %d)", syn.Error(), syn.Offset, line, col)
	case errors.As(err, &typ):
		pe.Details = fmt.Sprintf("unexpected %s for field %q at offset %d", typ.Value, typ.Field, typ.Offset)
	default:
		pe.Details = err.Error()
	}
	return pe
}

func offsetPosition(body []byte, offset int64) (line, col int) {
	line, col = 1, 1
	for i := int64(0); i < offset && i < int64(len(body)); i++ {
		if body[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func preview(body []byte) string {
	s := strings.ToValidUTF8(string(body), "")
	if len(s) > previewLimit {
		return s[:previewLimit] + "… (" + strconv.Itoa(len(s)) + " bytes total)"
	}
	return s
}

func coalesce(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// ExtractKey pulls the API key out of a request for rate-limiting before
// full validation runs: the X-API-Key header wins, then a best-effort peek
// at the body's key field, then the fallback (normally the client address)
// so malformed payloads still get a deterministic limiter key.
func ExtractKey(body []byte, headerKey, fallback string) string {
	if headerKey != "" {
		return headerKey
	}
	var peek struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(stripControlChars(body), &peek); err == nil && peek.Key != "" {
		return peek.Key
	}
	return fallback
}
