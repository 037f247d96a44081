package cache

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForbidden(t *testing.T) {
	f, err := NewForbidden()
	require.NoError(t, err)

	key := Key("GetBranchProtection", "org/repo@main")
	assert.Equal(t, "GetBranchProtection:org/repo@main", key)

	assert.False(t, f.Contains(key))
	f.Mark(key)
	assert.True(t, f.Contains(key))
	assert.Equal(t, 1, f.Len())

	assert.False(t, f.Contains(Key("GetBranchProtection", "org/other@main")))
}

func TestForbiddenRetainsRunScale(t *testing.T) {
	f, err := NewForbidden()
	require.NoError(t, err)

	// Two full hourly quotas of distinct 403s must not evict anything.
	const n = 10000
	for i := 0; i < n; i++ {
		f.Mark(Key("ListCommits", "org/repo-"+strconv.Itoa(i)))
	}

	assert.Equal(t, n, f.Len())
	assert.True(t, f.Contains(Key("ListCommits", "org/repo-0")))
	assert.True(t, f.Contains(Key("ListCommits", "org/repo-"+strconv.Itoa(n-1))))
}
