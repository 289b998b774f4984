package transport

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolRejectsNonPositiveSize(t *testing.T) {
	_, err := NewPool(0, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewPool(-3, zerolog.Nop())
	assert.Error(t, err)
}

func TestNextReactorFairness(t *testing.T) {
	const size = 4
	const calls = 97 // not a multiple of size, exercises the remainder split

	pool, err := NewPool(size, zerolog.Nop())
	require.NoError(t, err)

	counts := make(map[*Reactor]int)
	for i := 0; i < calls; i++ {
		counts[pool.NextReactor()]++
	}

	require.Len(t, counts, size)
	lo := calls / size
	hi := lo + 1
	for r, c := range counts {
		assert.Truef(t, c == lo || c == hi, "reactor %d got %d calls, want %d or %d", r.id, c, lo, hi)
	}
}

func TestNextReactorStrictRoundRobin(t *testing.T) {
	pool, err := NewPool(3, zerolog.Nop())
	require.NoError(t, err)

	first := pool.NextReactor()
	second := pool.NextReactor()
	third := pool.NextReactor()
	fourth := pool.NextReactor()

	assert.Same(t, first, fourth)
	assert.NotSame(t, first, second)
	assert.NotSame(t, second, third)
}

func TestPoolRunAndStop(t *testing.T) {
	pool, err := NewPool(2, zerolog.Nop())
	require.NoError(t, err)

	runDone := make(chan struct{})
	go func() {
		pool.Run()
		close(runDone)
	}()

	executed := make(chan struct{})
	pool.NextReactor().Submit(func() { close(executed) })
	<-executed

	pool.Stop()
	<-runDone
}
