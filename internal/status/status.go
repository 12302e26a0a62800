// Package status computes Ok/Warning verdicts from reported versions and
// configured baselines.
package status

import (
	"github.com/patchme-dev/patchme/internal/model"
	"github.com/patchme-dev/patchme/internal/version"
)

// Evaluate returns the aggregate status for a system: Warning as soon as any
// baseline check fails, Ok otherwise. A baseline the system has never
// reported a value for is skipped rather than treated as a violation.
func Evaluate(sys *model.System, baselines []model.Baseline) model.Status {
	values := make(map[string]string, len(sys.BaselineValues))
	for _, bv := range sys.BaselineValues {
		values[bv.Baseline.Variable] = bv.Value
	}
	for _, b := range baselines {
		val, ok := values[b.Variable]
		if !ok {
			continue
		}
		switch b.Type {
		case model.BaselineInfo:
			// Informational only.
		case model.BaselineMax:
			if version.Compare(val, b.MinVersion) > 0 {
				return model.StatusWarning
			}
		default:
			// MIN is the default when the type is unset.
			if version.Compare(val, b.MinVersion) < 0 {
				return model.StatusWarning
			}
		}
	}
	return model.StatusOk
}

// Counts evaluates every system and tallies the results for the dashboard.
func Counts(systems []model.System, baselines []model.Baseline) model.StatusCounts {
	c := model.StatusCounts{Total: len(systems)}
	for i := range systems {
		if Evaluate(&systems[i], baselines) == model.StatusOk {
			c.Ok++
		} else {
			c.Warnings++
		}
	}
	return c
}
