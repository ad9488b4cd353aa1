package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	// sha256 of the empty string, a fixed point worth pinning
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Hash(nil))

	a := Hash([]byte(`{"walls":[]}`))
	b := Hash([]byte(`{"walls":[]}`))
	c := Hash([]byte(`{"walls":[{}]}`))

	assert.Equal(t, a, b, "same content, same address")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
