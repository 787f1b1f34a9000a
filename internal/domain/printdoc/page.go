package printdoc

import (
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/criteria"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
)

// TrialIDPlaceholder is replaced in a link template with each trial's NCI ID.
const TrialIDPlaceholder = "<TRIAL_ID>"

// Page is everything the renderer needs to produce a print page.
type Page struct {
	Trials        []trial.Trial
	Criteria      *criteria.SearchCriteria
	Location      criteria.LocationCriteria
	LinkTemplate  string
	NewSearchLink string
}
