package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result for golden comparison:
//
//	-- text --
//	SELECT ...
//	-- parameters --
//	:family0 = "party"
//	:suburb0 <- suburb
//	-- aliases --
//	customerperson0, contacts0
//	-- fingerprint --
//	sha256:...
//
// A failed compilation renders as "-- error --" and the error code.
func Snapshot(result *Result) []byte {
	var buf bytes.Buffer
	if result.Compiled == nil {
		fmt.Fprintf(&buf, "-- error --\n%s\n", result.ErrorCode)
		return buf.Bytes()
	}

	q := result.Compiled
	fmt.Fprintf(&buf, "-- text --\n%s\n", q.Text)
	buf.WriteString("-- parameters --\n")
	for _, p := range q.Parameters {
		if p.Deferred() {
			fmt.Fprintf(&buf, ":%s <- %s\n", p.Name, p.Key)
			continue
		}
		fmt.Fprintf(&buf, ":%s = %#v\n", p.Name, p.Value)
	}
	fmt.Fprintf(&buf, "-- aliases --\n%s\n", strings.Join(q.Aliases, ", "))
	fmt.Fprintf(&buf, "-- fingerprint --\n%s\n", result.Fingerprint)
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run. Test failure (via goldie) occurs
// if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
