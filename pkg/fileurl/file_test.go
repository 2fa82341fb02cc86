package fileurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "history/u_1/history.json", JoinKey("", "history/u_1/history.json"))
	assert.Equal(t, "qr/history/u_1/history.json", JoinKey("/qr/", "/history/u_1/history.json"))
	assert.Equal(t, "a/b", JoinKey("a", "b"))
}

func TestPathSuffixCheckAdd(t *testing.T) {
	assert.Equal(t, "a/", PathSuffixCheckAdd("a", "/"))
	assert.Equal(t, "a/", PathSuffixCheckAdd("a/", "/"))
}
