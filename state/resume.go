package state

import "sort"

// Mode selects how ResumePlan restricts the set of models to execute.
type Mode int

const (
	// ModeFull ignores any prior run-state file and executes everything.
	ModeFull Mode = iota
	// ModeResume executes (completed ∪ pending) minus completed, i.e.
	// whatever did not finish last time.
	ModeResume
	// ModeRetryFailed restricts ModeResume's result to the failed subset.
	ModeRetryFailed
)

// ResumePlan computes the set of models to execute given a prior
// run-state file (nil if none was found or --full-refresh was passed)
// and the full set of models the current invocation would otherwise
// run. The prior file's ConfigHash is not consulted here;
// ConfigHashMismatch reports whether it differs from the current run's.
func ResumePlan(mode Mode, prior *RunStateFile, allModels []string) []string {
	if mode == ModeFull || prior == nil {
		return sortedCopy(allModels)
	}

	all := make(map[string]bool, len(allModels))
	for _, m := range allModels {
		all[m] = true
	}

	var toRun []string

	for _, name := range allModels {
		record, known := prior.Models[name]
		if !known {
			if mode == ModeResume {
				toRun = append(toRun, name)
			}

			continue
		}

		switch record.Status {
		case RunCompleted:
			continue
		case RunFailed:
			toRun = append(toRun, name)
		case RunPending:
			if mode == ModeResume {
				toRun = append(toRun, name)
			}
		}
	}

	return sortedCopy(toRun)
}

// ConfigHashMismatch reports whether prior's recorded config hash
// differs from the current run's.
func ConfigHashMismatch(prior *RunStateFile, currentConfigHash string) bool {
	return prior != nil && prior.ConfigHash != currentConfigHash
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)

	return out
}
