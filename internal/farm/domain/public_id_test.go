package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPublicIDShape(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id := NewPublicID()
		assert.Regexp(t, `^LOT-[0-9A-Z]{6}$`, id)
		assert.True(t, ValidPublicID(id))
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

func TestSeedPublicID(t *testing.T) {
	assert.Equal(t, "LOT-GREENVALLEYFARM-1", SeedPublicID("Green Valley Farm", 1))
	assert.Equal(t, "LOT-SMARTAGRICULTURECO-5", SeedPublicID("Smart Agriculture Co.", 5))
	assert.True(t, ValidPublicID(SeedPublicID("Smart Agriculture Co.", 5)))
	assert.True(t, ValidPublicID("DEMOLOT"))
	assert.False(t, ValidPublicID("lot 1"))
	assert.False(t, ValidPublicID("AB"))
	assert.False(t, ValidPublicID("LOT.1"))
}
