package flushpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_CapsConcurrency(t *testing.T) {
	p := New(3)
	var active int32
	var maxActive int32

	for i := 0; i < 50; i++ {
		p.Submit(context.Background(), func() {
			n := atomic.AddInt32(&active, 1)
			for {
				cur := atomic.LoadInt32(&maxActive)
				if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		})
	}

	p.WaitAll()
	assert.LessOrEqual(t, int(maxActive), 3)
	assert.EqualValues(t, 0, active)
}

func TestPool_WaitAllReturnsWhenEmpty(t *testing.T) {
	p := New(5)
	p.WaitAll() // should not block
}
