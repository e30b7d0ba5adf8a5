package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	assert.True(t, strings.HasPrefix(ua, "httpengine/"+Version+" "), ua)
	assert.Contains(t, ua, Go)
}

func TestString(t *testing.T) {
	oldCommit, oldDate := Commit, Date
	t.Cleanup(func() { Commit, Date = oldCommit, oldDate })

	Commit, Date = "", ""
	assert.Equal(t, "httpengine "+Version+" "+Go, String())

	Commit, Date = "abc123", "2026-10-14T00:00:00Z"
	assert.Equal(t, "httpengine "+Version+" (abc123) built 2026-10-14T00:00:00Z "+Go, String())
	assert.Equal(t, "abc123", Info()["commit"])
}
