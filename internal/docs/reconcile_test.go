package docs

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/taskdeck/taskdeck/internal/rules"
)

func decompose(s string) string {
	return norm.NFD.String(s)
}

func testTable(t *testing.T) *rules.Table {
	t.Helper()
	table, err := rules.NewTable([]rules.Rule{
		{Category: "development", From: "[ ]", Command: "start-basic-design", To: "[bd]", Doc: "010-basic-design.md"},
		{Category: "development", From: "[bd]", Command: "start-detail-design", To: "[dd]", Doc: "020-detail-design.md"},
		{Category: "development", From: "[dd]", Command: "start-implementation", To: "[im]", Doc: "030-implementation.md"},
		{Category: "development", From: "[im]", Command: "start-verification", To: "[vf]", Doc: "040-test-report.md"},
		{Category: "development", From: "[vf]", Command: "request-review", To: "[rv]", Doc: "050-review.md"},
		{Category: "development", From: "[vf]", Command: "complete", To: "[xx]"},
		{Category: "development", From: "[rv]", Command: "complete", To: "[xx]"},
	})
	require.NoError(t, err)
	return table
}

func TestReconcile_EmptyFolderYieldsOnlyExpected(t *testing.T) {
	docs := Reconcile(nil, "development", "[bd]", testTable(t))

	require.Len(t, docs, 1)
	assert.Equal(t, StageExpected, docs[0].Stage)
	assert.False(t, docs[0].Exists)
	assert.Equal(t, "020-detail-design.md", docs[0].Name)
	assert.Equal(t, "start-detail-design", docs[0].Command)
	assert.Equal(t, "[dd]", docs[0].ExpectedAfter)
}

func TestReconcile_SlugStatusForm(t *testing.T) {
	// On-file status strings carry a slug before the code; expected
	// documents must still be derived from the bracketed code.
	docs := Reconcile(nil, "development", "basic-design [bd]", testTable(t))

	require.Len(t, docs, 1)
	assert.Equal(t, StageExpected, docs[0].Stage)
	assert.Equal(t, "020-detail-design.md", docs[0].Name)
	assert.Equal(t, "start-detail-design", docs[0].Command)
}

func TestReconcile_ExistingPrecedesExpected(t *testing.T) {
	docs := Reconcile([]string{"010-basic-design.md"}, "development", "[bd]", testTable(t))

	require.Len(t, docs, 2)
	assert.Equal(t, StageCurrent, docs[0].Stage)
	assert.Equal(t, TypeDesign, docs[0].Type)
	assert.True(t, docs[0].Exists)
	assert.Equal(t, StageExpected, docs[1].Stage)

	// Invariant: no current entry after an expected one.
	sawExpected := false
	for _, d := range docs {
		if d.Stage == StageExpected {
			sawExpected = true
		}
		if sawExpected {
			assert.Equal(t, StageExpected, d.Stage)
		}
	}
}

func TestReconcile_ExistingFileSuppressesExpectedEntry(t *testing.T) {
	docs := Reconcile([]string{"020-detail-design.md"}, "development", "[bd]", testTable(t))

	require.Len(t, docs, 1)
	assert.Equal(t, StageCurrent, docs[0].Stage)
	assert.True(t, docs[0].Exists)
	assert.Empty(t, docs[0].Command)
}

func TestReconcile_OrdinalOrderWithinStage(t *testing.T) {
	docs := Reconcile(
		[]string{"030-implementation.md", "005-analysis.md", "010-basic-design.md"},
		"development", "[vf]", testTable(t),
	)

	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"005-analysis.md",
		"010-basic-design.md",
		"030-implementation.md",
		"050-review.md",
	}, names)
}

func TestReconcile_NonConventionNamesSkipped(t *testing.T) {
	docs := Reconcile(
		[]string{"README.md", "notes.txt", "010-basic-design.md", ".DS_Store"},
		"development", "[bd]", testTable(t),
	)

	require.Len(t, docs, 2)
	assert.Equal(t, "010-basic-design.md", docs[0].Name)
	assert.Equal(t, "020-detail-design.md", docs[1].Name)
}

func TestReconcile_UnknownCategoryOrStatusYieldsNoExpected(t *testing.T) {
	docs := Reconcile([]string{"010-basic-design.md"}, "marketing", "[bd]", testTable(t))
	require.Len(t, docs, 1)
	assert.Equal(t, StageCurrent, docs[0].Stage)

	docs = Reconcile(nil, "development", "[zz]", testTable(t))
	assert.Empty(t, docs)
}

func TestReconcile_TerminalStatusExpectsNothing(t *testing.T) {
	docs := Reconcile(nil, "development", "[xx]", testTable(t))
	assert.Empty(t, docs)
}

func TestReconcile_Idempotent(t *testing.T) {
	existing := []string{"030-implementation.md", "010-basic-design.md"}

	first := Reconcile(existing, "development", "[im]", testTable(t))
	second := Reconcile(existing, "development", "[im]", testTable(t))
	assert.Equal(t, first, second)

	// Input slice must not be reordered or otherwise mutated.
	assert.Equal(t, []string{"030-implementation.md", "010-basic-design.md"}, existing)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "byte-identical output for identical inputs")
}

func TestReconcile_NFDFilenameMatchesExpectedDoc(t *testing.T) {
	table, err := rules.NewTable([]rules.Rule{
		{Category: "development", From: "[bd]", Command: "start-detail-design", To: "[dd]", Doc: "020-상세설계.md"},
	})
	require.NoError(t, err)

	// The file on disk is NFD-decomposed; the rule's doc name is NFC.
	// They must reconcile to a single current entry.
	decomposed := decompose("020-상세설계.md")
	docs := Reconcile([]string{decomposed}, "development", "[bd]", table)

	require.Len(t, docs, 1)
	assert.Equal(t, StageCurrent, docs[0].Stage)
	assert.Equal(t, "020-상세설계.md", docs[0].Name)
}

func TestReconcile_Golden(t *testing.T) {
	docs := Reconcile(
		[]string{"005-analysis.md", "010-basic-design.md", "notes.txt"},
		"development", "[bd]", testTable(t),
	)

	data, err := json.MarshalIndent(docs, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "reconcile_bd", data)
}
