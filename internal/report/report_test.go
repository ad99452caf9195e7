package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdanil/gecko/internal/configtree"
	"github.com/evdanil/gecko/internal/rules"
)

func sampleResults() []rules.RuleResult {
	return []rules.RuleResult{
		{
			Passed: false, RuleID: "no-telnet", NodeID: "line vty 0 4", Level: rules.LevelError,
			Message: "telnet is not permitted on vty lines", Loc: configtree.Location{StartLine: 3, EndLine: 3},
			Remediation: "use transport input ssh",
		},
		{
			Passed: true, RuleID: "has-description", NodeID: "interface Gi0/1", Level: rules.LevelInfo,
			Message: "interface has a description", Loc: configtree.Location{StartLine: 0, EndLine: 2},
		},
	}
}

func TestWrite_JSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResults(), FormatJSON, Options{}))

	var decoded []rules.RuleResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}

func TestWrite_JSONAlwaysIncludesPasses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResults(), FormatJSON, Options{ShowPassed: false}))
	assert.Contains(t, buf.String(), "has-description", "JSON output must include passing results regardless of ShowPassed")
}

func TestWrite_HumanHidesPassesByDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResults(), FormatHuman, Options{NoColor: true}))

	out := buf.String()
	assert.NotContains(t, out, "has-description")
	assert.Contains(t, out, "no-telnet")
}

func TestWrite_HumanShowPassed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResults(), FormatHuman, Options{NoColor: true, ShowPassed: true}))
	assert.Contains(t, buf.String(), "has-description")
}

func TestWrite_JUnitWellFormed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResults(), FormatJUnit, Options{}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `failures="1"`)
	assert.Contains(t, out, `tests="2"`)
}

func TestWrite_SARIFRebasesLineNumbersToOneBased(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResults(), FormatSARIF, Options{}))

	var decoded sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Runs, 1)
	require.Len(t, decoded.Runs[0].Results, 1)

	region := decoded.Runs[0].Results[0].Locations[0].PhysicalLocation.Region
	assert.Equal(t, 4, region.StartLine, "0-based line 3 should rebase to SARIF line 4")
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, sampleResults(), Format("bogus"), Options{}))
}
