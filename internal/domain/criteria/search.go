// Package criteria builds the display criteria list and the location filter
// from a generate request's search_criteria payload.
package criteria

import (
	"encoding/json"
	"strings"
)

// Display labels, in the order they appear on the printed page.
const (
	LabelAge               = "Age"
	LabelZip               = "Near ZIP Code"
	LabelCountry           = "Country"
	LabelState             = "State"
	LabelCity              = "City"
	LabelHospital          = "At Hospital/Institution"
	LabelNIH               = "At NIH"
	LabelVA                = "Veterans Affairs Facilities"
	LabelCancerType        = "Primary Cancer Type/Condition"
	LabelSubtype           = "Subtype"
	LabelStage             = "Stage"
	LabelFindings          = "Side Effects/Biomarkers/Participant Attributes"
	LabelKeywords          = "Keywords/Phrases"
	LabelTrialType         = "Trial Type"
	LabelTrialPhase        = "Trial Phase"
	LabelDrug              = "Drug/Drug Family"
	LabelTreatment         = "Other Treatments"
	LabelHealthyVolunteers = "Healthy Volunteers"
	LabelInvestigator      = "Trial Investigators"
	LabelLeadOrg           = "Lead Organization"
	LabelTrialID           = "Trial ID"
)

const nihValue = "Only show trials at the NIH Clinical Center (Bethesda, MD)"

// Criterion is one display-only label/value pair.
type Criterion struct {
	Label string `json:"Label"`
	Value string `json:"Value"`
}

// SearchCriteria is an ordered list of criteria. Insertion order is kept and
// duplicates are allowed.
type SearchCriteria struct {
	items []Criterion
}

// Add appends a criterion.
func (s *SearchCriteria) Add(label, value string) {
	s.items = append(s.items, Criterion{Label: label, Value: value})
}

// Criteria returns the criteria in insertion order.
func (s *SearchCriteria) Criteria() []Criterion {
	if s == nil {
		return nil
	}
	out := make([]Criterion, len(s.items))
	copy(out, s.items)
	return out
}

// HasCriteria reports whether any criterion was added.
func (s *SearchCriteria) HasCriteria() bool {
	return s != nil && len(s.items) > 0
}

// MarshalJSON encodes the list as an ordered JSON array.
func (s *SearchCriteria) MarshalJSON() ([]byte, error) {
	if s == nil || s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// NewSearchCriteria builds the display list. A nil payload yields an empty list.
func NewSearchCriteria(p *Payload) *SearchCriteria {
	sc := &SearchCriteria{}
	if p == nil {
		return sc
	}

	addText(sc, LabelAge, string(p.Age))

	switch p.LocationSelector() {
	case LocationZip:
		if zip := strings.TrimSpace(string(p.Zip)); zip != "" {
			value := zip
			if p.ZipRadius.Set {
				value = "within " + p.ZipRadius.String() + " miles of " + zip
			}
			sc.Add(LabelZip, value)
		}
	case LocationCountry:
		addText(sc, LabelCountry, p.Country)
		addText(sc, LabelState, joinStates(p.States))
		addText(sc, LabelCity, p.City)
	case LocationHospital:
		if p.Hospital != nil {
			addText(sc, LabelHospital, p.Hospital.Term)
		}
	case LocationNIH:
		sc.Add(LabelNIH, nihValue)
	}

	if p.VAOnly {
		sc.Add(LabelVA, "Yes")
	}

	if p.CancerType != nil {
		addText(sc, LabelCancerType, p.CancerType.Name)
	}
	addText(sc, LabelSubtype, joinNames(p.Subtypes))
	addText(sc, LabelStage, joinNames(p.Stages))
	addText(sc, LabelFindings, joinNames(p.Findings))
	addText(sc, LabelKeywords, p.KeywordPhrases)
	addText(sc, LabelTrialType, joinChecked(p.TrialTypes))
	addText(sc, LabelTrialPhase, joinChecked(p.TrialPhases))
	addText(sc, LabelDrug, joinNames(p.Drugs))
	addText(sc, LabelTreatment, joinNames(p.Treatments))

	if p.HealthyVolunteers {
		sc.Add(LabelHealthyVolunteers, "Yes")
	}
	if p.Investigator != nil {
		addText(sc, LabelInvestigator, p.Investigator.Term)
	}
	if p.LeadOrg != nil {
		addText(sc, LabelLeadOrg, p.LeadOrg.Term)
	}
	addText(sc, LabelTrialID, p.TrialID)

	return sc
}

func addText(sc *SearchCriteria, label, value string) {
	if v := strings.TrimSpace(value); v != "" {
		sc.Add(label, v)
	}
}

func joinNames(items []Named) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		if n := strings.TrimSpace(it.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func joinStates(states []State) string {
	names := make([]string, 0, len(states))
	for _, st := range states {
		n := strings.TrimSpace(st.Name)
		if n == "" {
			n = strings.TrimSpace(st.Abbr)
		}
		if n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func joinChecked(items []Selection) string {
	labels := make([]string, 0, len(items))
	for _, it := range items {
		if it.Checked && strings.TrimSpace(it.Label) != "" {
			labels = append(labels, strings.TrimSpace(it.Label))
		}
	}
	return strings.Join(labels, ", ")
}
