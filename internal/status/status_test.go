package status

import (
	"testing"

	"github.com/patchme-dev/patchme/internal/model"
	"github.com/stretchr/testify/assert"
)

func systemWith(values map[string]string) *model.System {
	sys := &model.System{ID: "s1", Name: "test"}
	for variable, value := range values {
		sys.BaselineValues = append(sys.BaselineValues, model.BaselineValue{
			Value:    value,
			Baseline: model.Baseline{Variable: variable},
		})
	}
	return sys
}

func TestEvaluate_MinRule(t *testing.T) {
	baselines := []model.Baseline{
		{Variable: "PHP_Version", Type: model.BaselineMin, MinVersion: "2.0"},
	}
	tests := []struct {
		value string
		want  model.Status
	}{
		{"1.9", model.StatusWarning},
		{"2.0", model.StatusOk},
		{"2.1", model.StatusOk},
	}
	for _, tt := range tests {
		sys := systemWith(map[string]string{"PHP_Version": tt.value})
		assert.Equal(t, tt.want, Evaluate(sys, baselines), "value %q", tt.value)
	}
}

func TestEvaluate_MaxRule(t *testing.T) {
	baselines := []model.Baseline{
		{Variable: "Kernel", Type: model.BaselineMax, MinVersion: "5.0"},
	}
	tests := []struct {
		value string
		want  model.Status
	}{
		{"5.1", model.StatusWarning},
		{"5.0", model.StatusOk},
		{"4.9", model.StatusOk},
	}
	for _, tt := range tests {
		sys := systemWith(map[string]string{"Kernel": tt.value})
		assert.Equal(t, tt.want, Evaluate(sys, baselines), "value %q", tt.value)
	}
}

func TestEvaluate_InfoNeverWarns(t *testing.T) {
	baselines := []model.Baseline{
		{Variable: "Hostname", Type: model.BaselineInfo, MinVersion: "99.0"},
	}
	for _, value := range []string{"0.0.1", "100.0", "garbage"} {
		sys := systemWith(map[string]string{"Hostname": value})
		assert.Equal(t, model.StatusOk, Evaluate(sys, baselines), "value %q", value)
	}
}

func TestEvaluate_UnsetTypeDefaultsToMin(t *testing.T) {
	baselines := []model.Baseline{
		{Variable: "PHP_Version", MinVersion: "8.3"},
	}
	sys := systemWith(map[string]string{"PHP_Version": "8.2.20"})
	assert.Equal(t, model.StatusWarning, Evaluate(sys, baselines))
}

// A baseline the system never reported is skipped: the system stays Ok.
func TestEvaluate_MissingValueSkipped(t *testing.T) {
	baselines := []model.Baseline{
		{Variable: "MariaDB_Version", Type: model.BaselineMin, MinVersion: "10.11"},
	}
	sys := systemWith(nil)
	assert.Equal(t, model.StatusOk, Evaluate(sys, baselines))
}

func TestEvaluate_AnyViolationWins(t *testing.T) {
	baselines := []model.Baseline{
		{Variable: "PHP_Version", Type: model.BaselineMin, MinVersion: "8.3"},
		{Variable: "NC_Version", Type: model.BaselineMin, MinVersion: "29.0"},
	}
	sys := systemWith(map[string]string{
		"PHP_Version": "8.3.1",
		"NC_Version":  "28.0.6",
	})
	assert.Equal(t, model.StatusWarning, Evaluate(sys, baselines))
}

func TestCounts(t *testing.T) {
	baselines := []model.Baseline{
		{Variable: "PHP_Version", Type: model.BaselineMin, MinVersion: "8.3"},
	}
	systems := []model.System{
		*systemWith(map[string]string{"PHP_Version": "8.3.1"}),
		*systemWith(map[string]string{"PHP_Version": "8.2.20"}),
		*systemWith(nil),
	}
	c := Counts(systems, baselines)
	assert.Equal(t, model.StatusCounts{Total: 3, Ok: 2, Warnings: 1}, c)
}

func TestCounts_Empty(t *testing.T) {
	c := Counts(nil, nil)
	assert.Equal(t, model.StatusCounts{}, c)
}
