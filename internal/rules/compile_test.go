package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileDir_Valid(t *testing.T) {
	table, errs := CompileDir("testdata/valid")
	require.Empty(t, errs)
	require.NotNil(t, table)

	assert.Equal(t, []string{"defect", "development", "infrastructure"}, table.Categories())

	r, ok := table.Find("development", "[bd]", "start-detail-design")
	require.True(t, ok)
	assert.Equal(t, "[dd]", r.To)
	assert.Equal(t, "020-detail-design.md", r.Doc)

	// Explicit self-loop must survive compilation as declared.
	r, ok = table.Find("infrastructure", "[im]", "write-manual")
	require.True(t, ok)
	assert.Equal(t, "[im]", r.To)

	// Reopen out of terminal is only present where declared.
	_, ok = table.Find("defect", "[xx]", "reopen")
	assert.True(t, ok)
	_, ok = table.Find("development", "[xx]", "reopen")
	assert.False(t, ok)
}

func TestCompileDir_DuplicateRuleRejected(t *testing.T) {
	table, errs := CompileDir("testdata/duplicate")
	assert.Nil(t, table)
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeDuplicateRule, loadErr.Code)
	assert.Contains(t, loadErr.Message, "start-detail-design")
}

func TestCompileDir_CollectsAllValidationErrors(t *testing.T) {
	table, errs := CompileDir("testdata/malformed")
	assert.Nil(t, table)
	require.NotEmpty(t, errs)

	codes := make(map[string]int)
	for _, err := range errs {
		loadErr, ok := err.(*LoadError)
		require.True(t, ok, "expected *LoadError, got %T", err)
		codes[loadErr.Code]++
	}

	assert.Equal(t, 1, codes[ErrCodeUnknownCategory], "unknown category reported once")
	assert.Equal(t, 1, codes[ErrCodeEmptyCommand], "empty command reported once")
	assert.Equal(t, 1, codes[ErrCodeBadStatus], "unbracketed status reported once")
}

func TestCompileDir_MissingDirectory(t *testing.T) {
	table, errs := CompileDir("testdata/does-not-exist")
	assert.Nil(t, table)
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestCompileDir_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	table, errs := CompileDir(dir)
	assert.Nil(t, table)
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}
