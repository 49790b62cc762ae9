package track

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestList builds a list of tracks with the given durations.
func newTestList(t *testing.T, durations ...float64) *List {
	t.Helper()

	tracks := make([]*Track, len(durations))
	for i, d := range durations {
		tracks[i] = &Track{
			Key:      fmt.Sprintf("urn:book-%d", i),
			Href:     fmt.Sprintf("track%d.mp3", i),
			Title:    fmt.Sprintf("Track %d", i+1),
			Duration: d,
		}
	}

	list, err := NewList(tracks)
	require.NoError(t, err)
	return list
}

func TestNewList_AssignsIndexes(t *testing.T) {
	list := newTestList(t, 100, 200, 300)

	require.Equal(t, 3, list.Len())
	for i := 0; i < 3; i++ {
		tr := list.ByIndex(i)
		require.NotNil(t, tr)
		assert.Equal(t, i, tr.Index)
	}
}

func TestNewList_RejectsDuplicateKeys(t *testing.T) {
	_, err := NewList([]*Track{
		{Key: "same", Duration: 10},
		{Key: "same", Duration: 20},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate track key")
}

func TestNewList_RejectsEmptyKey(t *testing.T) {
	_, err := NewList([]*Track{{Key: "", Duration: 10}})
	require.Error(t, err)
}

func TestNewList_RejectsNegativeDuration(t *testing.T) {
	_, err := NewList([]*Track{{Key: "a", Duration: -1}})
	require.Error(t, err)
}

func TestList_Lookups(t *testing.T) {
	list := newTestList(t, 100, 200)

	assert.Equal(t, list.ByIndex(0), list.ByKey("urn:book-0"))
	assert.Equal(t, list.ByIndex(1), list.ByHref("track1.mp3"))
	assert.Nil(t, list.ByKey("missing"))
	assert.Nil(t, list.ByHref("missing.mp3"))
	assert.Nil(t, list.ByIndex(-1))
	assert.Nil(t, list.ByIndex(2))
}

func TestList_Neighbors(t *testing.T) {
	list := newTestList(t, 100, 200, 300)

	first := list.First()
	mid := list.ByIndex(1)
	last := list.Last()

	assert.Nil(t, list.Previous(first))
	assert.Same(t, first, list.Previous(mid))
	assert.Same(t, mid, list.Next(first))
	assert.Same(t, last, list.Next(mid))
	assert.Nil(t, list.Next(last))
}

func TestList_Neighbors_ByIdentityNotValue(t *testing.T) {
	list := newTestList(t, 100, 200)

	// A copy of a member track is not the member.
	copied := *list.First()
	assert.False(t, list.Contains(&copied))
	assert.Nil(t, list.Next(&copied))

	// A track from a different list is not a member either.
	other := newTestList(t, 100, 200)
	assert.False(t, list.Contains(other.First()))
}

func TestList_TotalDuration(t *testing.T) {
	list := newTestList(t, 1409, 500, 60.5)

	var sum float64
	for _, tr := range list.All() {
		sum += tr.Duration
	}
	assert.Equal(t, sum, list.TotalDuration())
	assert.InDelta(t, 1969.5, list.TotalDuration(), 1e-9)
}
