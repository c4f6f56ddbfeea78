package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConstraintEquality(t *testing.T) {
	c, err := ParseConstraint("paper_437 = day_3", "C001")
	require.NoError(t, err)
	assert.Equal(t, "C001", c.CID)
	assert.Equal(t, "paper", c.SubjectType)
	assert.Equal(t, "437", c.SubjectID)
	assert.Equal(t, OpEQ, c.Op)
	assert.Equal(t, []string{"day_3"}, c.Value)
}

func TestParseConstraintSet(t *testing.T) {
	c, err := ParseConstraint("room_Pinus in {day_4, day_5}", "C002")
	require.NoError(t, err)
	assert.Equal(t, "room", c.SubjectType)
	assert.Equal(t, "Pinus", c.SubjectID)
	assert.Equal(t, OpIN, c.Op)
	assert.Equal(t, []string{"day_4", "day_5"}, c.Value)
}

func TestParseConstraintNotIn(t *testing.T) {
	c, err := ParseConstraint("paper_12 not_in {day_1, day_2}", "C003")
	require.NoError(t, err)
	assert.Equal(t, OpNotIn, c.Op)
	assert.Equal(t, []string{"day_1", "day_2"}, c.Value)
}

func TestParseConstraintNotEqual(t *testing.T) {
	c, err := ParseConstraint("paper_12 != day_1", "C004")
	require.NoError(t, err)
	assert.Equal(t, OpNEQ, c.Op)
}

func TestParseConstraintPrecedence(t *testing.T) {
	c, err := ParseConstraint("paper_1 < paper_2", "C005")
	require.NoError(t, err)
	assert.Equal(t, OpLT, c.Op)
	assert.Equal(t, []string{"paper_2"}, c.Value)
}

func TestParseConstraintQuotedValue(t *testing.T) {
	c, err := ParseConstraint(`section_S01 = "Welcome Session"`, "C006")
	require.NoError(t, err)
	assert.Equal(t, "section", c.SubjectType)
	assert.Equal(t, "S01", c.SubjectID)
	assert.Equal(t, []string{"Welcome Session"}, c.Value)
}

func TestParseConstraintRejectsGarbage(t *testing.T) {
	_, err := ParseConstraint("this is not a constraint at all", "C007")
	assert.Error(t, err)

	_, err = ParseConstraint("", "C008")
	assert.Error(t, err)
}

func TestConstraintTextRoundTrip(t *testing.T) {
	inputs := []string{
		"paper_437 = day_3",
		"paper_12 != day_1",
		"paper_12 not_in {day_1, day_2}",
		"room_Pinus in {day_4, day_5}",
		"paper_1 < paper_2",
	}
	for _, text := range inputs {
		c, err := ParseConstraint(text, "C001")
		require.NoError(t, err, text)

		again, err := ParseConstraint(c.Text(), "C001")
		require.NoError(t, err, c.Text())
		assert.Equal(t, c, again, text)
	}
}
