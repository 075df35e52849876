package syncutil_test

import (
	"sync"
	"testing"

	"github.com/db47h/ethsim/internal/syncutil"
)

func TestMutex(t *testing.T) {
	const n = 64
	var (
		mu  syncutil.Mutex
		wg  sync.WaitGroup
		sum int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mu.Lock()
				sum++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if sum != n*100 {
		t.Fatalf("got %d, expected %d", sum, n*100)
	}
}
