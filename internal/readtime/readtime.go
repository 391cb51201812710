// Package readtime estimates how long a post takes to read.
package readtime

import "strings"

// DefaultSpeed is the reading speed in words per minute used when none is configured.
const DefaultSpeed = 200

// WordCount counts whitespace-delimited tokens. Markdown syntax and code
// fences count as words; the estimate is an approximation over raw source.
func WordCount(body string) int {
	return len(strings.Fields(body))
}

// Estimate returns max(1, ceil(words/speed)) minutes. A speed below 1 is
// treated as 1 word per minute.
func Estimate(body string, speed int) int {
	if speed < 1 {
		speed = 1
	}
	minutes := (WordCount(body) + speed - 1) / speed
	return max(1, minutes)
}
