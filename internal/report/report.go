// Package report formats a rule-engine scan ([]rules.RuleResult) for
// human consumption or for downstream tooling (JSON, JUnit, SARIF).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/evdanil/gecko/internal/rules"
)

// Format names an output format accepted by Write.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatJUnit Format = "junit"
	FormatSARIF Format = "sarif"
)

// Options controls rendering, independent of Format.
type Options struct {
	// ShowPassed includes passing results in human output. JSON and JUnit
	// always include the full result set regardless of this flag; SARIF
	// always lists failing results only.
	ShowPassed bool
	NoColor    bool
	Duration   time.Duration
	// ToolVersion is embedded in the SARIF driver block.
	ToolVersion string
}

// Write renders results to w in the named format.
func Write(w io.Writer, results []rules.RuleResult, format Format, opts Options) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, results)
	case FormatJUnit:
		return writeJUnit(w, results, opts)
	case FormatSARIF:
		return writeSARIF(w, results, opts)
	case FormatHuman, "":
		return writeHuman(w, results, opts)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(w io.Writer, results []rules.RuleResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeHuman(w io.Writer, results []rules.RuleResult, opts Options) error {
	var errorCount, warnCount, infoCount, passCount int
	for _, r := range results {
		if r.Passed {
			passCount++
			continue
		}
		switch r.Level {
		case rules.LevelError:
			errorCount++
		case rules.LevelWarning:
			warnCount++
		default:
			infoCount++
		}
	}

	if errorCount == 0 {
		printColor(w, opts, "32", "✓ No blocking rule failures")
	} else {
		printColor(w, opts, "31", "✗ Rule evaluation found blocking failures")
	}
	fmt.Fprintf(w, "\n%d errors, %d warnings, %d info, %d passed\n\n", errorCount, warnCount, infoCount, passCount)

	for _, r := range results {
		if r.Passed && !opts.ShowPassed {
			continue
		}
		printResultLine(w, r, opts)
	}

	fmt.Fprintf(w, "\nCompleted in %s\n", opts.Duration)
	return nil
}

func printResultLine(w io.Writer, r rules.RuleResult, opts Options) {
	status := "PASS"
	color := "32"
	if !r.Passed {
		status = levelLabel(r.Level)
		color = levelColor(r.Level)
	}

	loc := fmt.Sprintf("line %d", r.Loc.StartLine)
	if r.Loc.EndLine != r.Loc.StartLine {
		loc = fmt.Sprintf("lines %d-%d", r.Loc.StartLine, r.Loc.EndLine)
	}

	if opts.NoColor {
		fmt.Fprintf(w, "[%s] %s at %s (%s): %s\n", status, r.RuleID, loc, r.NodeID, r.Message)
	} else {
		fmt.Fprintf(w, "\033[%sm[%s]\033[0m %s at %s (%s): %s\n", color, status, r.RuleID, loc, r.NodeID, r.Message)
	}

	if r.Remediation != "" {
		if opts.NoColor {
			fmt.Fprintf(w, "  -> %s\n", r.Remediation)
		} else {
			fmt.Fprintf(w, "  \033[36m-> %s\033[0m\n", r.Remediation)
		}
	}
}

func printColor(w io.Writer, opts Options, code, msg string) {
	if opts.NoColor {
		fmt.Fprintln(w, msg)
		return
	}
	fmt.Fprintf(w, "\033[%sm%s\033[0m\n", code, msg)
}

func levelLabel(l rules.Level) string {
	switch l {
	case rules.LevelError:
		return "ERROR"
	case rules.LevelWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

func levelColor(l rules.Level) string {
	switch l {
	case rules.LevelError:
		return "31"
	case rules.LevelWarning:
		return "33"
	default:
		return "34"
	}
}

func writeJUnit(w io.Writer, results []rules.RuleResult, opts Options) error {
	var failures int
	for _, r := range results {
		if !r.Passed {
			failures++
		}
	}

	fmt.Fprintln(w, `<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintf(w, "<testsuite name=\"gecko\" tests=\"%d\" failures=\"%d\" time=\"%.3f\">\n",
		len(results), failures, opts.Duration.Seconds())

	for _, r := range results {
		fmt.Fprintf(w, "  <testcase name=%q classname=%q>\n", r.RuleID, r.NodeID)
		if !r.Passed {
			fmt.Fprintf(w, "    <failure message=%q>\n", r.Message)
			fmt.Fprintln(w, "      <![CDATA[")
			fmt.Fprintf(w, "[%s] %s (line %d)\n", r.Level, r.Message, r.Loc.StartLine)
			if r.Remediation != "" {
				fmt.Fprintf(w, "  Remediation: %s\n", r.Remediation)
			}
			fmt.Fprintln(w, "      ]]>")
			fmt.Fprintln(w, "    </failure>")
		}
		fmt.Fprintln(w, "  </testcase>")
	}

	fmt.Fprintln(w, "</testsuite>")
	return nil
}

// sarifLog, sarifRun, sarifTool, sarifDriver, sarifResult, sarifMessage,
// sarifLocation, sarifPhysicalLocation, sarifArtifactLocation and
// sarifRegion mirror the subset of the SARIF 2.1.0 object model gecko
// emits; see https://docs.oasis-open.org/sarif/sarif/v2.1.0.
type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string `json:"name"`
	InformationURI string `json:"informationUri"`
	Version        string `json:"version"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

func writeSARIF(w io.Writer, results []rules.RuleResult, opts Options) error {
	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "gecko",
				InformationURI: "",
				Version:        opts.ToolVersion,
			}},
			Results: toSARIFResults(results),
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func toSARIFResults(results []rules.RuleResult) []sarifResult {
	out := make([]sarifResult, 0, len(results))
	for _, r := range results {
		if r.Passed {
			continue
		}
		// SARIF line numbers are 1-based; ours are 0-based internally.
		out = append(out, sarifResult{
			RuleID:  r.RuleID,
			Level:   sarifLevel(r.Level),
			Message: sarifMessage{Text: r.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: r.NodeID},
					Region: sarifRegion{
						StartLine: r.Loc.StartLine + 1,
						EndLine:   r.Loc.EndLine + 1,
					},
				},
			}},
		})
	}
	return out
}

func sarifLevel(l rules.Level) string {
	switch l {
	case rules.LevelError:
		return "error"
	case rules.LevelWarning:
		return "warning"
	default:
		return "note"
	}
}
