package calibration

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// Response is the subject's binary judgment of a presented stimulus.
type Response int

const (
	NotPainful Response = iota + 1 // Stimulus was under the target VAS level.
	Painful                        // Stimulus was at or over the target VAS level.
)

var (
	responseNames  = [...]string{NotPainful: "not_painful", Painful: "painful"}
	responseByName = map[string]Response{
		"not_painful": NotPainful,
		"painful":     Painful,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Response(0)
	_ json.Marshaler           = Response(0)
	_ json.Unmarshaler         = (*Response)(nil)
	_ encoding.TextMarshaler   = Response(0)
	_ encoding.TextUnmarshaler = (*Response)(nil)
)

// ParseResponse maps a free-form answer to a Response. It accepts the
// canonical names plus the keypress shorthand used by the experiment script:
// "y"/"yes" for painful, "n"/"no" for not painful (case-insensitive).
func ParseResponse(s string) (Response, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "painful", "y", "yes":
		return Painful, nil
	case "not_painful", "not painful", "n", "no":
		return NotPainful, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidResponse, s)
}

// String returns the name of the response ("painful", "not_painful").
// For invalid values it returns "Response(n)".
func (r Response) String() string {
	if r.IsValid() {
		return responseNames[r]
	}
	return fmt.Sprintf("Response(%d)", int(r))
}

// IsValid reports whether r is a valid response.
func (r Response) IsValid() bool {
	return r == NotPainful || r == Painful
}

// MarshalText implements encoding.TextMarshaler.
func (r Response) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResponse, int(r))
	}
	return []byte(responseNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Response) UnmarshalText(text []byte) error {
	v, ok := responseByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidResponse, text)
	}
	*r = v
	return nil
}

// MarshalJSON implements json.Marshaler. Response serializes as a JSON string.
func (r Response) MarshalJSON() ([]byte, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (r *Response) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidResponse, data)
	}
	return r.UnmarshalText([]byte(s))
}
