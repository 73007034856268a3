package counter

import (
	"bufio"
	"bytes"
	"strings"
)

// Stats is a per-file line breakdown.
type Stats struct {
	Total   int64 `json:"total"`
	Code    int64 `json:"code"`
	Comment int64 `json:"comment"`
	Blank   int64 `json:"blank"`
}

// Count classifies every line of source under the given comment syntax.
// Classification is line-granular: a line opening a block comment counts
// as comment even when code precedes the marker.
func Count(source []byte, syn Syntax) Stats {
	var stats Stats
	var inBlock bool
	var blockEnd string

	sc := bufio.NewScanner(bytes.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		stats.Total++

		if inBlock {
			stats.Comment++
			if strings.Contains(line, blockEnd) {
				inBlock = false
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			stats.Blank++
			continue
		}

		if lineComment(trimmed, syn) {
			stats.Comment++
			continue
		}

		if open, end, ok := blockStart(line, syn); ok {
			// A block that closes on its opening line stays closed.
			rest := line[strings.Index(line, open)+len(open):]
			if !strings.Contains(rest, end) {
				inBlock = true
				blockEnd = end
			}
			stats.Comment++
			continue
		}

		stats.Code++
	}

	return stats
}

func lineComment(trimmed string, syn Syntax) bool {
	for _, prefix := range syn.Line {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func blockStart(line string, syn Syntax) (open, end string, ok bool) {
	for _, pair := range syn.Block {
		if strings.Contains(line, pair[0]) {
			return pair[0], pair[1], true
		}
	}
	return "", "", false
}
