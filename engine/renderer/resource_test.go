package renderer

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRefCountDestroyOnce(t *testing.T) {
	var destroyed int
	var rc RefCount
	rc.InitRefCount("probe", func() { destroyed++ })

	if rc.DebugName() != "probe" {
		t.Errorf("DebugName: got %q, want probe", rc.DebugName())
	}

	rc.Retain()
	rc.Release()
	if destroyed != 0 {
		t.Fatal("destroy ran while an owner remained")
	}

	rc.Release()
	if destroyed != 1 {
		t.Fatalf("destroy ran %d times, want 1", destroyed)
	}
}

func TestRefCountConcurrentOwners(t *testing.T) {
	var destroyed atomic.Int32
	var rc RefCount
	rc.InitRefCount("shared", func() { destroyed.Add(1) })

	const owners = 32
	// Hand out the owners before any goroutine releases, so the count
	// cannot touch zero early.
	for i := 0; i < owners; i++ {
		rc.Retain()
	}

	var wg sync.WaitGroup
	for i := 0; i < owners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.Release()
		}()
	}
	wg.Wait()

	if destroyed.Load() != 0 {
		t.Fatal("destroy ran while the creating owner remained")
	}
	rc.Release()
	if destroyed.Load() != 1 {
		t.Fatalf("destroy ran %d times, want 1", destroyed.Load())
	}
}
