package selection

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitonboard/backend/pkg/apperrors"
)

func TestSelectAddsAncestorChain(t *testing.T) {
	var d Data
	require.NoError(t, d.Select(BodyAreas(), "upper-chest"))

	want := Data{
		"upper-body":  {Selected: true, Label: "Upper Body", Level: LevelPrimary, Children: []string{"chest"}},
		"chest":       {Selected: true, Label: "Chest", Level: LevelSecondary, ParentKey: "upper-body", Children: []string{"upper-chest"}},
		"upper-chest": {Selected: true, Label: "Upper Chest", Level: LevelTertiary, ParentKey: "chest"},
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, d.Validate())
}

func TestSelectSiblingsShareParent(t *testing.T) {
	d := Data{}
	require.NoError(t, d.Select(BodyAreas(), "lower-chest"))
	require.NoError(t, d.Select(BodyAreas(), "upper-chest"))
	require.NoError(t, d.Select(BodyAreas(), "back"))

	assert.Equal(t, []string{"lower-chest", "upper-chest"}, d["chest"].Children)
	assert.Equal(t, []string{"back", "chest"}, d["upper-body"].Children)
	assert.Equal(t, []string{"back", "lower-chest", "upper-chest"}, d.Leaves())
}

func TestLabelsFollowKeyOrder(t *testing.T) {
	d := Data{}
	require.NoError(t, d.Select(BodyAreas(), "upper-chest"))
	require.NoError(t, d.Select(BodyAreas(), "back"))

	assert.Equal(t, []string{"Upper Chest", "Back"}, d.Labels([]string{"upper-chest", "back"}))
	assert.Equal(t, []string{"Chest"}, d.Labels([]string{"tail", "chest"}))
	assert.Equal(t, []string{}, Data{}.Labels(nil))
}

func TestSelectUnknownKey(t *testing.T) {
	d := Data{}
	err := d.Select(BodyAreas(), "wings")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownKey))
	assert.Empty(t, d)
}

func TestDeselectCascadesToDescendants(t *testing.T) {
	d := Data{}
	for _, k := range []string{"upper-chest", "lower-chest", "lats", "biceps", "quads"} {
		require.NoError(t, d.Select(BodyAreas(), k))
	}

	removed := d.Deselect("upper-body")

	assert.Equal(t, []string{"arms", "back", "biceps", "chest", "lats", "lower-chest", "upper-body", "upper-chest"}, removed)
	assert.Equal(t, []string{"lower-body", "quads"}, d.SelectedKeys())
	require.NoError(t, d.Validate())
}

func TestDeselectDetachesFromParent(t *testing.T) {
	d := Data{}
	require.NoError(t, d.Select(BodyAreas(), "upper-chest"))
	require.NoError(t, d.Select(BodyAreas(), "lower-chest"))

	assert.Equal(t, []string{"upper-chest"}, d.Deselect("upper-chest"))
	assert.Equal(t, []string{"lower-chest"}, d["chest"].Children)

	d.Deselect("lower-chest")
	assert.Nil(t, d["chest"].Children)
	assert.Equal(t, []string{"chest"}, d.Leaves())
}

func TestDeselectAbsentKey(t *testing.T) {
	d := Data{}
	assert.Nil(t, d.Deselect("chest"))
}

func TestToggle(t *testing.T) {
	d := Data{}

	on, err := d.Toggle(Equipment(), "adjustable-dumbbells")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Contains(t, d, "free-weights")

	on, err = d.Toggle(Equipment(), "dumbbells")
	require.NoError(t, err)
	assert.False(t, on)
	assert.NotContains(t, d, "adjustable-dumbbells")
	assert.Contains(t, d, "free-weights")
}

func TestValidateReportsBrokenLinks(t *testing.T) {
	d := Data{
		"chest":       {Selected: true, Label: "Chest", Level: LevelSecondary, ParentKey: "upper-body"},
		"upper-body":  {Selected: true, Label: "Upper Body", Level: LevelPrimary, Children: []string{"back"}},
		"upper-chest": {Selected: true, Label: "Upper Chest", Level: LevelTertiary, ParentKey: "upper-body"},
		"core":        {Selected: true, Label: "Core", Level: "middle"},
	}

	err := d.Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	fields := apperrors.FieldsOf(err)
	got := make([]string, 0, len(fields))
	for _, f := range fields {
		got = append(got, f.Field+": "+f.Message)
	}
	assert.Equal(t, []string{
		`core: unknown level "middle"`,
		`upper-body: child "back" does not point back`,
		`upper-chest: parent "upper-body" is not one tier above`,
	}, got)
}

func TestCloneIsIndependent(t *testing.T) {
	d := Data{}
	require.NoError(t, d.Select(BodyAreas(), "upper-chest"))
	c := d.Clone()

	c.Deselect("chest")
	assert.Contains(t, d, "upper-chest")
	assert.Equal(t, []string{"upper-chest"}, d["chest"].Children)
}
