package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConflictRelation(t *testing.T) {
	assert.Equal(t, RelationContradiction, ParseConflictRelation("contradiction"))
	assert.Equal(t, RelationSupersedes, ParseConflictRelation("supersedes"))
	assert.Equal(t, RelationDuplicate, ParseConflictRelation("duplicate"))
	assert.Equal(t, RelationAugments, ParseConflictRelation("augments"))
	assert.Equal(t, RelationIndependent, ParseConflictRelation("independent"))

	// Anything unrecognized degrades to independent
	assert.Equal(t, RelationIndependent, ParseConflictRelation("somewhat_related"))
	assert.Equal(t, RelationIndependent, ParseConflictRelation(""))
}

func TestConflictRelation_IsConflict(t *testing.T) {
	for _, r := range []ConflictRelation{RelationContradiction, RelationSupersedes, RelationDuplicate, RelationAugments} {
		assert.True(t, r.IsConflict(), "%s should be a conflict", r)
	}
	assert.False(t, RelationIndependent.IsConflict())
}
