// Package lyrics provides lyrics parsing and sourcing.
package lyrics

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line is a single lyric line. Time is zero for unsynced lyrics.
type Line struct {
	Time time.Duration
	Text string
}

// Lyrics holds parsed lyric lines plus any metadata tags found in the file.
type Lyrics struct {
	Lines  []Line
	Title  string
	Artist string
	Album  string
}

// LineAt returns the index of the line active at pos, or -1 when no line
// has started yet or the lyrics are unsynced.
func (l *Lyrics) LineAt(pos time.Duration) int {
	if len(l.Lines) == 0 || !l.IsSynced() {
		return -1
	}
	n := sort.Search(len(l.Lines), func(i int) bool {
		return l.Lines[i].Time > pos
	})
	return n - 1
}

// IsSynced reports whether any line carries a timestamp.
func (l *Lyrics) IsSynced() bool {
	for _, line := range l.Lines {
		if line.Time > 0 {
			return true
		}
	}
	return false
}

// ParseLRC reads LRC formatted lyrics. Lines may carry several timestamps
// ([00:12.34][00:45.67]text) and metadata tags ([ar:...], [ti:...], [al:...])
// are picked up when present. Lines without a timestamp are skipped.
func ParseLRC(r io.Reader) (*Lyrics, error) {
	out := &Lyrics{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		stamps, rest := leadingTags(raw)
		if len(stamps) == 0 {
			if tag, val, ok := metaTag(raw); ok {
				switch tag {
				case "ar":
					out.Artist = val
				case "ti":
					out.Title = val
				case "al":
					out.Album = val
				}
			}
			continue
		}
		text := strings.TrimSpace(rest)
		for _, ts := range stamps {
			out.Lines = append(out.Lines, Line{Time: ts, Text: text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out.Lines, func(i, j int) bool {
		return out.Lines[i].Time < out.Lines[j].Time
	})
	return out, nil
}

// leadingTags consumes every [mm:ss.xx] tag at the start of the line and
// returns the parsed timestamps plus whatever text follows them.
func leadingTags(s string) ([]time.Duration, string) {
	var stamps []time.Duration
	for strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			break
		}
		ts, ok := parseStamp(s[1:end])
		if !ok {
			break
		}
		stamps = append(stamps, ts)
		s = s[end+1:]
	}
	return stamps, s
}

// parseStamp parses "mm:ss", "mm:ss.xx", "mm:ss.xxx" or "mm:ss:xx".
func parseStamp(s string) (time.Duration, bool) {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(s[:colon])
	if err != nil {
		return 0, false
	}
	rest := s[colon+1:]
	frac := ""
	if i := strings.IndexAny(rest, ".:"); i >= 0 {
		rest, frac = rest[:i], rest[i+1:]
	}
	seconds, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	d := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if frac != "" {
		ms, err := strconv.Atoi(frac)
		if err != nil {
			return 0, false
		}
		if len(frac) == 2 {
			ms *= 10
		}
		d += time.Duration(ms) * time.Millisecond
	}
	return d, true
}

// metaTag parses a "[tag:value]" metadata line.
func metaTag(s string) (tag, val string, ok bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	body := s[1 : len(s)-1]
	colon := strings.IndexByte(body, ':')
	if colon <= 0 {
		return "", "", false
	}
	tag = strings.ToLower(strings.TrimSpace(body[:colon]))
	for _, r := range tag {
		if r < 'a' || r > 'z' {
			return "", "", false
		}
	}
	return tag, strings.TrimSpace(body[colon+1:]), true
}
