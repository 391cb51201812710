package readtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimate_FourHundredWordsAtTwoHundred(t *testing.T) {
	body := strings.TrimSpace(strings.Repeat("word ", 400))
	require.Equal(t, 400, WordCount(body))
	require.Equal(t, 2, Estimate(body, 200))
}

func TestEstimate_RoundsUp(t *testing.T) {
	body := strings.Repeat("w ", 201)
	require.Equal(t, 2, Estimate(body, 200))
}

func TestEstimate_EmptyIsOneMinute(t *testing.T) {
	require.Equal(t, 1, Estimate("", 200))
	require.Equal(t, 1, Estimate("   \n\t ", 200))
}

func TestEstimate_AlwaysAtLeastOne(t *testing.T) {
	bodies := []string{"", "one", strings.Repeat("x ", 10_000), "```go\nfunc main() {}\n```"}
	for _, speed := range []int{1, 2, 200, 1_000_000} {
		for _, body := range bodies {
			require.GreaterOrEqual(t, Estimate(body, speed), 1)
		}
	}
}

func TestEstimate_InvalidSpeedTreatedAsOne(t *testing.T) {
	require.Equal(t, 3, Estimate("a b c", 0))
	require.Equal(t, 3, Estimate("a b c", -5))
}

func TestWordCount_CountsMarkdownSyntax(t *testing.T) {
	body := "# Title\n\n[link](https://example.com) `code`"
	require.Equal(t, 4, WordCount(body))
}
