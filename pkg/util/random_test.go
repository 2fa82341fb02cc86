package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRandomString(t *testing.T) {
	s := GetRandomString(32)
	assert.Len(t, s, 32)
	assert.Regexp(t, `^[a-zA-Z0-9]+$`, s)
	assert.NotEqual(t, s, GetRandomString(32))
	assert.Empty(t, GetRandomString(0))
}
