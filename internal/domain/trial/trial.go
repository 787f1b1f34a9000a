// Package trial models the clinical trial records returned by the trials API.
package trial

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinates is a site's geographic position. Either field may be absent.
type Coordinates struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// UnmarshalJSON reads lat and lon as numbers or numeric strings. A value that
// cannot be read as a finite number is left absent.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat json.RawMessage `json:"lat"`
		Lon json.RawMessage `json:"lon"`
	}
	*c = Coordinates{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil //nolint:nilerr // non-object coordinates are treated as absent
	}
	c.Lat = looseFloat(raw.Lat)
	c.Lon = looseFloat(raw.Lon)
	return nil
}

// Site is one location where a trial is conducted.
type Site struct {
	RecruitmentStatus  string       `json:"recruitment_status,omitempty"`
	OrgName            string       `json:"org_name,omitempty"`
	OrgCountry         string       `json:"org_country,omitempty"`
	OrgCity            string       `json:"org_city,omitempty"`
	OrgStateOrProvince string       `json:"org_state_or_province,omitempty"`
	OrgPostalCode      string       `json:"org_postal_code,omitempty"`
	OrgCoordinates     *Coordinates `json:"org_coordinates,omitempty"`
	OrgVA              *bool        `json:"org_va,omitempty"`
	OrgPhone           string       `json:"org_phone,omitempty"`
	OrgEmail           string       `json:"org_email,omitempty"`
}

// UnmarshalJSON decodes a site. org_va accepts booleans, "true"/"false" and
// 0/1; any other value leaves the flag absent.
func (s *Site) UnmarshalJSON(data []byte) error {
	type alias Site
	var raw struct {
		alias
		OrgVA json.RawMessage `json:"org_va"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode site: %w", err)
	}
	*s = Site(raw.alias)
	s.OrgVA = looseBool(raw.OrgVA)
	return nil
}

// HasCoordinates reports whether both latitude and longitude are present.
func (s Site) HasCoordinates() bool {
	return s.OrgCoordinates != nil && s.OrgCoordinates.Lat != nil && s.OrgCoordinates.Lon != nil
}

// IsVA reports whether the site is flagged as a Veterans Affairs facility.
func (s Site) IsVA() bool {
	return s.OrgVA != nil && *s.OrgVA
}

// Trial is a single clinical trial. Identity is NCIID.
type Trial struct {
	NCIID                 string `json:"nci_id"`
	NCTID                 string `json:"nct_id,omitempty"`
	BriefTitle            string `json:"brief_title,omitempty"`
	OfficialTitle         string `json:"official_title,omitempty"`
	BriefSummary          string `json:"brief_summary,omitempty"`
	CurrentTrialStatus    string `json:"current_trial_status,omitempty"`
	Phase                 string `json:"phase,omitempty"`
	PrimaryPurpose        string `json:"primary_purpose,omitempty"`
	LeadOrg               string `json:"lead_org,omitempty"`
	PrincipalInvestigator string `json:"principal_investigator,omitempty"`
	Sites                 []Site `json:"sites"`

	sitesMalformed bool
}

// SitesMalformed reports whether the upstream record had no usable site array.
func (t Trial) SitesMalformed() bool {
	return t.sitesMalformed
}

// WithSites returns a copy of the trial carrying the given site list.
func (t Trial) WithSites(sites []Site) Trial {
	t.Sites = sites
	return t
}

// UnmarshalJSON decodes a trial, tolerating a missing or non-array "sites" value.
func (t *Trial) UnmarshalJSON(data []byte) error {
	type alias Trial
	var raw struct {
		alias
		Sites json.RawMessage `json:"sites"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode trial: %w", err)
	}
	*t = Trial(raw.alias)
	t.Sites = nil
	t.sitesMalformed = false

	body := bytes.TrimSpace(raw.Sites)
	if len(body) == 0 || body[0] != '[' {
		t.Sites = []Site{}
		t.sitesMalformed = true
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("decode sites for %s: %w", t.NCIID, err)
	}
	// an unreadable site is dropped; the rest of the trial survives
	t.Sites = make([]Site, 0, len(items))
	for _, item := range items {
		var site Site
		if err := json.Unmarshal(item, &site); err != nil {
			continue
		}
		t.Sites = append(t.Sites, site)
	}
	return nil
}

func looseFloat(raw json.RawMessage) *float64 {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil
	}
	if text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func looseBool(raw json.RawMessage) *bool {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil
	}
	if text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseBool(text)
	if err != nil {
		return nil
	}
	return &v
}

// Clone returns a deep copy so that filtering stages never share site slices.
func (t Trial) Clone() Trial {
	if t.Sites != nil {
		sites := make([]Site, len(t.Sites))
		copy(sites, t.Sites)
		t.Sites = sites
	}
	return t
}
