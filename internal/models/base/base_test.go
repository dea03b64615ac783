package base

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceRefExists(t *testing.T) {
	refs := []string{"row-9", "row-1", "row-5"}
	sort.Strings(refs)
	assert.True(t, SourceRefExists("row-5", refs, len(refs)))
	assert.True(t, SourceRefExists("row-9", refs, len(refs)))
	assert.False(t, SourceRefExists("row-7", refs, len(refs)))
	assert.False(t, SourceRefExists("zzz", refs, len(refs)))
	assert.False(t, SourceRefExists("row-1", nil, 0))
}
