package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs the scenario and compares its JSON trace against
// testdata/golden/<scenario>.golden. Regenerate goldens with
// go test -update.
func RunWithGolden(t *testing.T, sc *Scenario) *RunResult {
	t.Helper()

	result, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
	return result
}
