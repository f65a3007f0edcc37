package traceshim

import (
	"context"
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestQueryReturnsValueOnSuccess(t *testing.T) {
	got, err := Query(context.Background(), "probe", func(context.Context) (string, error) {
		return "clang", nil
	})
	assert.NilError(t, err)
	assert.Equal(t, got, "clang")
}

func TestQueryPropagatesError(t *testing.T) {
	want := errors.New("boom")
	_, err := Query(context.Background(), "probe", func(context.Context) (int, error) {
		return 0, want
	})
	assert.Assert(t, errors.Is(err, want))
}
