package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttrs(t *testing.T) {
	require.Equal(t, KeySlug, Slug("a").Key)
	require.Equal(t, "a", Slug("a").Value.String())
	require.Equal(t, int64(3), Page(3).Value.Int64())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	require.Equal(t, "", Error(nil).Value.String())
}
