package migration

import (
	"strings"
	"testing"
)

func TestStepsAreIdempotent(t *testing.T) {
	steps := Steps()
	if len(steps) == 0 {
		t.Fatal("Expected migration steps")
	}
	for _, step := range steps {
		sql := strings.ToUpper(step.SQL)
		if !strings.Contains(sql, "IF NOT EXISTS") {
			t.Errorf("Step %q is not guarded by IF NOT EXISTS", step.Name)
		}
	}
}

func TestFitResultsSchema(t *testing.T) {
	for _, column := range []string{"coefficient_names TEXT[]", "estimates DOUBLE PRECISION[]", "p_values DOUBLE PRECISION[]", "r_squared"} {
		if !strings.Contains(createFitResultsTable, column) {
			t.Errorf("Expected fit_results to declare %s", column)
		}
	}
	if NewRunner().Version() == "" {
		t.Error("Expected a migration version")
	}
}
