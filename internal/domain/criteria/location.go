package criteria

import (
	"strings"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/geo"
)

// LocationType selects which location filter applies to trial sites.
type LocationType int

const (
	None LocationType = iota
	Hospital
	CountryCityState
	Zip
	AtNIH
)

func (t LocationType) String() string {
	switch t {
	case Hospital:
		return "hospital"
	case CountryCityState:
		return "country_city_state"
	case Zip:
		return "zip"
	case AtNIH:
		return "at_nih"
	default:
		return "none"
	}
}

// LocationCriteria drives site filtering. Sub-fields are populated only for
// the active Type; an empty sub-field imposes no constraint.
type LocationCriteria struct {
	Type        LocationType
	Country     string
	City        string
	States      map[string]struct{}
	GeoLocation *geo.Location
	ZipRadius   float64
	ZipCode     string
	Hospital    string
	IsVAOnly    bool
}

// HasCountry reports whether a country constraint is set.
func (c LocationCriteria) HasCountry() bool { return c.Country != "" }

// HasCity reports whether a city constraint is set.
func (c LocationCriteria) HasCity() bool { return c.City != "" }

// HasStates reports whether a state constraint is set.
func (c LocationCriteria) HasStates() bool { return len(c.States) > 0 }

// HasState reports whether code is one of the selected states.
func (c LocationCriteria) HasState(code string) bool {
	_, ok := c.States[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Filtering reports whether any site filter applies.
func (c LocationCriteria) Filtering() bool {
	switch c.Type {
	case CountryCityState, Zip, AtNIH:
		return true
	}
	return c.IsVAOnly && c.Type != Hospital
}

// NewLocationCriteria derives the location filter from a payload. A nil payload,
// or one without a recognised location selector, yields Type None.
func NewLocationCriteria(p *Payload) LocationCriteria {
	if p == nil {
		return LocationCriteria{}
	}
	lc := LocationCriteria{IsVAOnly: bool(p.VAOnly)}

	switch p.LocationSelector() {
	case LocationNIH:
		lc.Type = AtNIH
	case LocationHospital:
		lc.Type = Hospital
		if p.Hospital != nil {
			lc.Hospital = strings.TrimSpace(p.Hospital.Term)
		}
	case LocationCountry:
		lc.Type = CountryCityState
		lc.Country = strings.TrimSpace(p.Country)
		lc.City = strings.TrimSpace(p.City)
		for _, st := range p.States {
			code := strings.ToUpper(strings.TrimSpace(st.Abbr))
			if code == "" {
				continue
			}
			if lc.States == nil {
				lc.States = make(map[string]struct{})
			}
			lc.States[code] = struct{}{}
		}
	case LocationZip:
		if p.ZipCoords == nil || !p.ZipCoords.Lat.Set || !p.ZipCoords.Long.Set || !p.ZipRadius.Set {
			return lc
		}
		center := geo.NewLocation(p.ZipCoords.Lat.Value, p.ZipCoords.Long.Value)
		if !center.Valid() {
			return lc
		}
		lc.Type = Zip
		lc.GeoLocation = &center
		lc.ZipRadius = p.ZipRadius.Value
		lc.ZipCode = strings.TrimSpace(string(p.Zip))
	}
	return lc
}
