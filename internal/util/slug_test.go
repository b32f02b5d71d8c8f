package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello-world", Slugify("Hello World!"))
	assert.Equal(t, "a-b-c", Slugify("  a  b -- c  "))
	assert.Equal(t, "42-ways-to-go", Slugify("42 Ways to Go"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestNormalizeList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "go,testing", NormalizeList(" Go , Testing "))
	assert.Equal(t, "", NormalizeList(""))
	assert.Equal(t, "one", NormalizeList("one,,  ,"))
}
