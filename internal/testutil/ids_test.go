package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunIDGenerator_InOrderThenSticky(t *testing.T) {
	gen := NewFixedRunIDGenerator("run-1", "run-2")

	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
}

func TestFixedRunIDGenerator_Default(t *testing.T) {
	gen := NewFixedRunIDGenerator()
	assert.Equal(t, DefaultRunID, gen.Generate())
	assert.Equal(t, DefaultRunID, gen.Generate())
}

func TestFixedRunIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedRunIDGenerator("only")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "only", gen.Generate())
			}
		}()
	}
	wg.Wait()
}
