package worker

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePreservesInputOrder(t *testing.T) {
	pool := NewPool(4, func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n * 2), nil
	})

	outcomes := pool.Execute(context.Background(), []int{1, 2, 3, 4, 5})
	require.Len(t, outcomes, 5)
	for i, out := range outcomes {
		assert.Equal(t, i+1, out.Input)
		assert.Equal(t, strconv.Itoa((i+1)*2), out.Result)
		assert.NoError(t, out.Err)
	}
}

func TestExecuteCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	pool := NewPool(2, func(_ context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, boom
		}
		return n, nil
	})

	outcomes := pool.Execute(context.Background(), []int{1, 2, 3})
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, boom)
	assert.NoError(t, outcomes[2].Err)
}

func TestExecuteZeroWorkersClamped(t *testing.T) {
	pool := NewPool(0, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	outcomes := pool.Execute(context.Background(), []int{7})
	require.Len(t, outcomes, 1)
	assert.Equal(t, 7, outcomes[0].Result)
}
