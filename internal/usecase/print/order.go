package print

import (
	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
)

// EnforceTrialOrder returns the trials in the order of ids. IDs with no
// matching trial are dropped; IDs with several matches keep all of them in
// fetched order. Trials not named in ids are never returned.
func EnforceTrialOrder(log *zap.Logger, trials []trial.Trial, ids []string) []trial.Trial {
	byID := make(map[string][]int, len(trials))
	for i, t := range trials {
		byID[t.NCIID] = append(byID[t.NCIID], i)
	}

	out := make([]trial.Trial, 0, len(ids))
	for _, id := range ids {
		matches := byID[id]
		switch {
		case len(matches) == 0:
			log.Warn("no match found for trial id", zap.String("nci_id", id))
		case len(matches) > 1:
			log.Warn("multiple matches for trial id",
				zap.String("nci_id", id), zap.Int("matches", len(matches)))
		}
		for _, i := range matches {
			out = append(out, trials[i].Clone())
		}
	}
	return out
}
