package criteria

import "testing"

func TestNewLocationCriteria_Nil(t *testing.T) {
	lc := NewLocationCriteria(nil)
	if lc.Type != None {
		t.Errorf("Type = %v, want none", lc.Type)
	}
	if lc.Filtering() {
		t.Error("nil payload must not filter")
	}
}

func TestNewLocationCriteria_NoLocationFields(t *testing.T) {
	lc := NewLocationCriteria(mustPayload(t, `{"age": 30, "location": "search-location-all"}`))
	if lc.Type != None {
		t.Errorf("Type = %v, want none", lc.Type)
	}
}

func TestNewLocationCriteria_Zip(t *testing.T) {
	lc := NewLocationCriteria(mustPayload(t, `{
		"location": "search-location-zip",
		"zip": "20892",
		"zipCoords": {"lat": "38.9", "long": -77.0},
		"zipRadius": 25
	}`))
	if lc.Type != Zip {
		t.Fatalf("Type = %v, want zip", lc.Type)
	}
	if lc.GeoLocation == nil {
		t.Fatal("GeoLocation not set")
	}
	if lc.GeoLocation.Lat() != 38.9 || lc.GeoLocation.Lon() != -77.0 {
		t.Errorf("GeoLocation = (%v, %v)", lc.GeoLocation.Lat(), lc.GeoLocation.Lon())
	}
	if lc.ZipRadius != 25 {
		t.Errorf("ZipRadius = %v, want 25", lc.ZipRadius)
	}
	if lc.ZipCode != "20892" {
		t.Errorf("ZipCode = %q", lc.ZipCode)
	}
	if lc.HasCountry() || lc.HasCity() || lc.HasStates() {
		t.Error("zip criteria must not carry country/city/state")
	}
}

func TestNewLocationCriteria_ZipWithoutCoordsIsNone(t *testing.T) {
	lc := NewLocationCriteria(mustPayload(t, `{"location": "search-location-zip", "zip": "20892", "zipRadius": 25}`))
	if lc.Type != None {
		t.Errorf("Type = %v, want none", lc.Type)
	}
}

func TestNewLocationCriteria_CountryCityState(t *testing.T) {
	lc := NewLocationCriteria(mustPayload(t, `{
		"location": "search-location-country",
		"country": " United States ",
		"states": [{"abbr": "md"}, {"abbr": "VA"}, {"abbr": ""}],
		"vaOnly": true
	}`))
	if lc.Type != CountryCityState {
		t.Fatalf("Type = %v, want country_city_state", lc.Type)
	}
	if lc.Country != "United States" {
		t.Errorf("Country = %q", lc.Country)
	}
	if lc.HasCity() {
		t.Error("city should be unset")
	}
	if len(lc.States) != 2 || !lc.HasState("MD") || !lc.HasState("va") {
		t.Errorf("States = %v", lc.States)
	}
	if !lc.IsVAOnly {
		t.Error("IsVAOnly should be true")
	}
}

func TestNewLocationCriteria_HospitalAndNIH(t *testing.T) {
	hosp := NewLocationCriteria(mustPayload(t, `{"location": "search-location-hospital", "hospital": {"term": "Mayo"}, "vaOnly": true}`))
	if hosp.Type != Hospital || hosp.Hospital != "Mayo" {
		t.Errorf("hospital criteria = %+v", hosp)
	}
	if hosp.Filtering() {
		t.Error("hospital with vaOnly must not filter")
	}

	nih := NewLocationCriteria(mustPayload(t, `{"nihOnly": true}`))
	if nih.Type != AtNIH {
		t.Errorf("Type = %v, want at_nih", nih.Type)
	}
}

func TestLocationCriteria_Filtering(t *testing.T) {
	tests := []struct {
		lc   LocationCriteria
		want bool
	}{
		{LocationCriteria{}, false},
		{LocationCriteria{IsVAOnly: true}, true},
		{LocationCriteria{Type: Hospital}, false},
		{LocationCriteria{Type: Hospital, IsVAOnly: true}, false},
		{LocationCriteria{Type: Zip}, true},
		{LocationCriteria{Type: CountryCityState}, true},
		{LocationCriteria{Type: AtNIH}, true},
	}
	for _, tt := range tests {
		if got := tt.lc.Filtering(); got != tt.want {
			t.Errorf("%+v.Filtering() = %v, want %v", tt.lc, got, tt.want)
		}
	}
}
