package testutil

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator("")
	assert.Equal(t, 0, gen.Issued())

	assert.Equal(t, "sub-0001", gen.Generate())
	assert.Equal(t, "sub-0002", gen.Generate())
	assert.Equal(t, 2, gen.Issued())

	gen.Reset()
	assert.Equal(t, 0, gen.Issued())
	assert.Equal(t, "sub-0001", gen.Generate())
}

func TestSequentialIDGenerator_CustomPrefix(t *testing.T) {
	gen := NewSequentialIDGenerator("wf")
	assert.Equal(t, "wf-0001", gen.Generate())
}

func TestSequentialIDGenerator_WidthGrowsPastPadding(t *testing.T) {
	gen := NewSequentialIDGenerator("")
	var last string
	for i := 0; i < 10000; i++ {
		last = gen.Generate()
	}
	assert.Equal(t, "sub-10000", last)
}

func TestSequentialIDGenerator_SameRunSameIDs(t *testing.T) {
	run := func() []string {
		gen := NewSequentialIDGenerator("")
		return []string{gen.Generate(), gen.Generate(), gen.Generate()}
	}
	assert.Equal(t, run(), run())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDGenerator("")

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []string
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, ids, 1000)
	assert.Equal(t, 1000, gen.Issued())
	sort.Strings(ids)
	assert.Equal(t, "sub-0001", ids[0])
	assert.Equal(t, "sub-1000", ids[len(ids)-1])
	for i := 1; i < len(ids); i++ {
		assert.NotEqual(t, ids[i-1], ids[i])
	}
}
