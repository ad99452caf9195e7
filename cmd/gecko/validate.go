package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evdanil/gecko/internal/catalog"
	"github.com/evdanil/gecko/internal/configtree"
	"github.com/evdanil/gecko/internal/gkconfig"
	"github.com/evdanil/gecko/internal/obslog"
	"github.com/evdanil/gecko/internal/obsmetrics"
	"github.com/evdanil/gecko/internal/report"
	"github.com/evdanil/gecko/internal/rules"
)

var (
	validateMode       string
	validateOutput     string
	validateNoColor    bool
	validateShowPassed bool
	validateAST        bool
	validateExt        string
	validateRulesDir   string
)

func init() {
	validateCmd.Flags().StringVarP(&validateMode, "mode", "m", "", "validation mode: normal or strict (overrides config)")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "human", "output format: human, json, junit, sarif")
	validateCmd.Flags().BoolVar(&validateNoColor, "no-color", false, "disable colored human output")
	validateCmd.Flags().BoolVar(&validateShowPassed, "show-passed", false, "include passing rule results in human output")
	validateCmd.Flags().BoolVar(&validateAST, "ast", false, "print the parsed forest as JSON instead of running rules")
	validateCmd.Flags().StringVar(&validateExt, "ext", "", "path to a Block-Starter Schema extension file")
	validateCmd.Flags().StringVar(&validateRulesDir, "rules", "", "directory of rule manifests (overrides config ruleset.paths)")
}

var validateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Parse and validate a device configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := gkconfig.Load(cfgFile)
	if err != nil {
		return err
	}
	if validateMode != "" {
		cfg.RuleSet.Mode = validateMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := obslog.New(obslog.Config(cfg.Log))
	metrics := obsmetrics.NewScanMetrics()

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	schema := configtree.DefaultSchema()
	if validateExt != "" {
		extra, err := loadSchemaExtension(validateExt)
		if err != nil {
			return err
		}
		schema = schema.Extend(extra)
	}

	forest := configtree.Parse(string(text), configtree.ParseOptions{Schema: schema})
	metrics.ObserveForestSize(countNodes(forest))

	if validateAST {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(forest)
	}

	rulesDir := validateRulesDir
	paths := cfg.RuleSet.Paths
	if rulesDir != "" {
		paths = []string{rulesDir}
	}

	var manifests []catalog.Manifest
	for _, p := range paths {
		ms, err := catalog.LoadDir(p)
		if err != nil {
			return err
		}
		manifests = append(manifests, ms...)
	}
	ruleSet, err := catalog.Build(manifests)
	if err != nil {
		return err
	}

	start := time.Now()
	results := rules.Run(forest, ruleSet, rules.PartialContext{
		Extra: map[string]any{"file_path": args[0]},
	}, logger)
	duration := time.Since(start)

	hadErrors := false
	for _, r := range results {
		metrics.ObserveRuleResult(r.RuleID, string(r.Level), r.Passed)
		if !r.Passed && r.Level == rules.LevelError {
			hadErrors = true
		}
	}
	metrics.ObserveScan(duration.Seconds(), hadErrors)

	if err := report.Write(os.Stdout, results, report.Format(validateOutput), report.Options{
		ShowPassed:  validateShowPassed,
		NoColor:     validateNoColor,
		Duration:    duration,
		ToolVersion: version,
	}); err != nil {
		return err
	}

	exitCode := 0
	if hadErrors {
		exitCode = 1
	} else if cfg.RuleSet.Mode == "strict" && hasWarning(results) {
		exitCode = 2
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	logger.Debug("validate complete", "file", args[0], "results", len(results))
	return nil
}

func hasWarning(results []rules.RuleResult) bool {
	for _, r := range results {
		if !r.Passed && r.Level == rules.LevelWarning {
			return true
		}
	}
	return false
}

func countNodes(forest configtree.Forest) int {
	n := 0
	forest.Walk(func(*configtree.ConfigNode) { n++ })
	return n
}

func loadSchemaExtension(path string) ([]configtree.StarterPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema extension: %w", err)
	}
	var entries []struct {
		Name    string `yaml:"name"`
		Pattern string `yaml:"pattern"`
	}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse schema extension: %w", err)
	}
	out := make([]configtree.StarterPattern, 0, len(entries))
	for _, e := range entries {
		out = append(out, configtree.NewRegexStarter(e.Name, e.Pattern))
	}
	return out, nil
}
