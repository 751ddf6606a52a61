package lyrics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, lrc string) *Lyrics {
	t.Helper()
	ly, err := ParseLRC(strings.NewReader(lrc))
	require.NoError(t, err)
	return ly
}

func TestParseLRCLinesAndMetadata(t *testing.T) {
	ly := parse(t, `[ar:Mira Vale]
[ti:Undertow]
[al:Slow Signals]
[00:12.34]First line
[00:15.67]Second line
[00:20.00]Third line`)

	assert.Equal(t, "Mira Vale", ly.Artist)
	assert.Equal(t, "Undertow", ly.Title)
	assert.Equal(t, "Slow Signals", ly.Album)

	require.Len(t, ly.Lines, 3)
	assert.Equal(t, Line{12*time.Second + 340*time.Millisecond, "First line"}, ly.Lines[0])
	assert.Equal(t, Line{15*time.Second + 670*time.Millisecond, "Second line"}, ly.Lines[1])
	assert.Equal(t, Line{20 * time.Second, "Third line"}, ly.Lines[2])
}

func TestParseLRCRepeatedTimestampsSorted(t *testing.T) {
	ly := parse(t, `[02:30.00][00:30.00][01:30.00]Chorus`)

	require.Len(t, ly.Lines, 3)
	for i, want := range []time.Duration{30 * time.Second, 90 * time.Second, 150 * time.Second} {
		assert.Equal(t, want, ly.Lines[i].Time)
		assert.Equal(t, "Chorus", ly.Lines[i].Text)
	}
}

func TestParseLRCTimestampVariants(t *testing.T) {
	ly := parse(t, `[00:10]plain seconds
[00:20.5]tenths
[00:30.50]centiseconds
[00:40.500]milliseconds
[01:00:00]colon fraction`)

	require.Len(t, ly.Lines, 5)
	assert.Equal(t, 10*time.Second, ly.Lines[0].Time)
	assert.Equal(t, 30*time.Second+500*time.Millisecond, ly.Lines[2].Time)
	assert.Equal(t, 40*time.Second+500*time.Millisecond, ly.Lines[3].Time)
	assert.Equal(t, time.Minute, ly.Lines[4].Time)
}

func TestParseLRCSkipsBlankAndUntimedLines(t *testing.T) {
	ly := parse(t, `[00:10.00]First

stray text without a tag
[00:20.00]Second`)

	require.Len(t, ly.Lines, 2)
	assert.Empty(t, ly.Artist)
	assert.Empty(t, ly.Title)
}

func TestLineAt(t *testing.T) {
	ly := &Lyrics{Lines: []Line{
		{Time: 10 * time.Second, Text: "First"},
		{Time: 20 * time.Second, Text: "Second"},
		{Time: 30 * time.Second, Text: "Third"},
	}}

	for _, tc := range []struct {
		pos  time.Duration
		want int
	}{
		{0, -1},
		{5 * time.Second, -1},
		{10 * time.Second, 0},
		{15 * time.Second, 0},
		{20 * time.Second, 1},
		{30 * time.Second, 2},
		{time.Minute, 2},
	} {
		assert.Equal(t, tc.want, ly.LineAt(tc.pos), "pos %v", tc.pos)
	}
}

func TestLineAtUnsynced(t *testing.T) {
	ly := &Lyrics{Lines: []Line{{Text: "only text"}, {Text: "more text"}}}
	assert.False(t, ly.IsSynced())
	assert.Equal(t, -1, ly.LineAt(10*time.Second))

	assert.Equal(t, -1, (&Lyrics{}).LineAt(10*time.Second))
}
