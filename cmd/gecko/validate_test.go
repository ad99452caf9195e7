package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdanil/gecko/internal/configtree"
	"github.com/evdanil/gecko/internal/rules"
)

func TestLoadSchemaExtension_ParsesPatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ext.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: acl-entry
  pattern: '^\d+ (permit|deny) '
`), 0o644))

	patterns, err := loadSchemaExtension(path)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "acl-entry", patterns[0].Name)
}

func TestLoadSchemaExtension_RejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ext.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := loadSchemaExtension(path)
	assert.Error(t, err)
}

func TestCountNodes_SumsAcrossForest(t *testing.T) {
	forest := configtree.Parse("interface Gi0/1\n description uplink\ninterface Gi0/2\n", configtree.ParseOptions{})
	assert.Equal(t, 3, countNodes(forest))
}

func TestHasWarning_DetectsUnpassedWarningLevel(t *testing.T) {
	warn := []rules.RuleResult{{Passed: false, Level: rules.LevelWarning}}
	err := []rules.RuleResult{{Passed: false, Level: rules.LevelError}}
	passed := []rules.RuleResult{{Passed: true, Level: rules.LevelWarning}}

	assert.True(t, hasWarning(warn))
	assert.False(t, hasWarning(err))
	assert.False(t, hasWarning(passed))
}
