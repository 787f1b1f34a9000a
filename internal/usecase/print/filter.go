package print

import (
	"strings"

	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/criteria"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/geo"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
)

// NIHPostalCode is the postal code of the NIH Clinical Center campus.
const NIHPostalCode = "20892"

const zipSearchCountry = "United States"

// RemoveNonRecruitingSites keeps only sites that are actively recruiting.
// A trial whose upstream site list was missing or malformed ends up with no sites.
func RemoveNonRecruitingSites(log *zap.Logger, trials []trial.Trial) []trial.Trial {
	out := make([]trial.Trial, 0, len(trials))
	for _, t := range trials {
		if t.SitesMalformed() {
			log.Warn("site list is empty or malformed", zap.String("nci_id", t.NCIID))
			out = append(out, t.WithSites([]trial.Site{}))
			continue
		}
		sites := make([]trial.Site, 0, len(t.Sites))
		for _, s := range t.Sites {
			if trial.IsActivelyRecruiting(s.RecruitmentStatus) {
				sites = append(sites, s)
			}
		}
		out = append(out, t.WithSites(sites))
	}
	return out
}

// ApplyLocationFilter narrows each trial's sites when lc has an active filter.
// Otherwise the trials are returned as copies, unchanged.
func ApplyLocationFilter(trials []trial.Trial, lc criteria.LocationCriteria) []trial.Trial {
	out := make([]trial.Trial, 0, len(trials))
	for _, t := range trials {
		if !lc.Filtering() {
			out = append(out, t.Clone())
			continue
		}
		out = append(out, t.WithSites(FilterLocations(t.Sites, lc)))
	}
	return out
}

// FilterLocations returns the sites matching lc.
//
//   - AtNIH keeps sites on the NIH campus.
//   - CountryCityState keeps sites matching every populated sub-field, ignoring case.
//   - Zip keeps US sites with coordinates within lc.ZipRadius miles of lc.GeoLocation.
//   - Hospital and None apply no primary filter.
//
// Unless the type is Hospital, IsVAOnly then keeps only VA facilities.
func FilterLocations(sites []trial.Site, lc criteria.LocationCriteria) []trial.Site {
	out := make([]trial.Site, 0, len(sites))
	for _, s := range sites {
		if !matchesPrimary(s, lc) {
			continue
		}
		if lc.IsVAOnly && lc.Type != criteria.Hospital && !s.IsVA() {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matchesPrimary(s trial.Site, lc criteria.LocationCriteria) bool {
	switch lc.Type {
	case criteria.AtNIH:
		return strings.TrimSpace(s.OrgPostalCode) == NIHPostalCode
	case criteria.CountryCityState:
		if lc.HasCountry() && !strings.EqualFold(s.OrgCountry, lc.Country) {
			return false
		}
		if lc.HasCity() && !strings.EqualFold(s.OrgCity, lc.City) {
			return false
		}
		if lc.HasStates() && !lc.HasState(s.OrgStateOrProvince) {
			return false
		}
		return true
	case criteria.Zip:
		return withinRadius(s, lc)
	default:
		return true
	}
}

func withinRadius(s trial.Site, lc criteria.LocationCriteria) bool {
	if lc.GeoLocation == nil || !strings.EqualFold(s.OrgCountry, zipSearchCountry) || !s.HasCoordinates() {
		return false
	}
	lat, lon := *s.OrgCoordinates.Lat, *s.OrgCoordinates.Lon
	if !geo.ValidateCoordinates(lat, lon) {
		return false
	}
	return lc.GeoLocation.DistanceMiles(geo.NewLocation(lat, lon)) <= lc.ZipRadius
}

// SetLocationStateNames replaces each site's state code with the state name.
// Unknown codes are kept.
func SetLocationStateNames(trials []trial.Trial) []trial.Trial {
	out := make([]trial.Trial, 0, len(trials))
	for _, t := range trials {
		c := t.Clone()
		for i := range c.Sites {
			if code := c.Sites[i].OrgStateOrProvince; code != "" {
				c.Sites[i].OrgStateOrProvince = trial.StateName(code)
			}
		}
		out = append(out, c)
	}
	return out
}
