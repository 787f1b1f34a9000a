package criteria

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Location selector values sent by the search form.
const (
	LocationAll      = "search-location-all"
	LocationZip      = "search-location-zip"
	LocationCountry  = "search-location-country"
	LocationHospital = "search-location-hospital"
	LocationNIH      = "search-location-nih"
)

// Payload is the typed shape of a generate request's search_criteria object.
// Unknown fields are ignored.
type Payload struct {
	Age               Text        `json:"age"`
	Zip               Text        `json:"zip"`
	ZipCoords         *ZipCoords  `json:"zipCoords"`
	ZipRadius         Number      `json:"zipRadius"`
	Country           string      `json:"country"`
	States            []State     `json:"states"`
	City              string      `json:"city"`
	Hospital          *Term       `json:"hospital"`
	NIHOnly           Flag        `json:"nihOnly"`
	VAOnly            Flag        `json:"vaOnly"`
	Location          string      `json:"location"`
	CancerType        *Named      `json:"cancerType"`
	Subtypes          []Named     `json:"subtypes"`
	Stages            []Named     `json:"stages"`
	Findings          []Named     `json:"findings"`
	KeywordPhrases    string      `json:"keywordPhrases"`
	TrialTypes        []Selection `json:"trialTypes"`
	TrialPhases       []Selection `json:"trialPhases"`
	Drugs             []Named     `json:"drugs"`
	Treatments        []Named     `json:"treatments"`
	HealthyVolunteers Flag        `json:"healthyVolunteers"`
	Investigator      *Term       `json:"investigator"`
	LeadOrg           *Term       `json:"leadOrg"`
	TrialID           string      `json:"trialId"`
}

// LocationSelector returns the location selector in effect. A payload without
// one but with nihOnly set selects the NIH campus.
func (p *Payload) LocationSelector() string {
	if p.Location == "" && bool(p.NIHOnly) {
		return LocationNIH
	}
	return p.Location
}

// ZipCoords is the geocoded centre of the searched ZIP code.
type ZipCoords struct {
	Lat  Number `json:"lat"`
	Long Number `json:"long"`
}

// State is one selected US state.
type State struct {
	Abbr string `json:"abbr"`
	Name string `json:"name"`
}

// Term is a free-text autocomplete selection.
type Term struct {
	Term string `json:"term"`
}

// Named is a selection identified by its display name.
type Named struct {
	Name string `json:"name"`
}

// Selection is a checkbox entry.
type Selection struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Checked Flag   `json:"checked"`
}

// ParsePayload decodes a search_criteria object. Empty input and JSON null yield nil.
func ParsePayload(data []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var p Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("decode search criteria: %w", err)
	}
	return &p, nil
}

// Number is a JSON number that may also arrive as a numeric string.
type Number struct {
	Value float64
	Set   bool
}

// UnmarshalJSON accepts 25, "25" and null. An empty string leaves the number unset.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %q: %w", s, err)
		}
		*n = Number{Value: v, Set: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*n = Number{Value: v, Set: true}
	return nil
}

// MarshalJSON writes the value, or null when unset.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// String formats the number without a trailing fraction when it is whole.
func (n Number) String() string {
	if !n.Set {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Flag is a JSON boolean that may also arrive as a string such as "true".
type Flag bool

// UnmarshalJSON accepts true, "true", "1", "" and null. Anything else is an error.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("flag %q: %w", s, err)
		}
		*f = Flag(v)
		return nil
	}
	var v bool
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*f = Flag(v)
	return nil
}

// Text is a JSON string that may also arrive as a bare number, e.g. a ZIP code.
type Text string

// UnmarshalJSON accepts "20892", 20892 and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = ""
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return fmt.Errorf("text value: %w", err)
	}
	*t = Text(num.String())
	return nil
}
