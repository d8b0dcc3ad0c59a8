package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMaintainer_RunsRegisteredJob(t *testing.T) {
	m := NewMaintainer()
	var count int32
	if err := m.Every("@every 10ms", func() { atomic.AddInt32(&count, 1) }); err != nil {
		t.Fatalf("Every failed: %v", err)
	}
	m.Start()
	defer m.Stop()

	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&count) == 0 {
		t.Error("expected maintenance job to have run at least once")
	}
}

func TestMaintainer_StartIsIdempotent(t *testing.T) {
	m := NewMaintainer()
	m.Start()
	m.Start() // must not panic or double-start
	m.Stop()
}

func TestBackoff_GrowsExponentiallyUpToCap(t *testing.T) {
	b := NewBackoff(10*time.Millisecond, 100*time.Millisecond)

	first := b.Next()
	second := b.Next()
	third := b.Next()

	if first != 10*time.Millisecond {
		t.Errorf("expected first delay 10ms, got %v", first)
	}
	if second != 20*time.Millisecond {
		t.Errorf("expected second delay 20ms, got %v", second)
	}
	if third != 40*time.Millisecond {
		t.Errorf("expected third delay 40ms, got %v", third)
	}

	for i := 0; i < 10; i++ {
		if d := b.Next(); d > 100*time.Millisecond {
			t.Fatalf("backoff exceeded cap: %v", d)
		}
	}
}

func TestBackoff_ResetRestartsFromBase(t *testing.T) {
	b := NewBackoff(5*time.Millisecond, 50*time.Millisecond)
	b.Next()
	b.Next()
	b.Reset()

	if d := b.Next(); d != 5*time.Millisecond {
		t.Errorf("expected reset backoff to restart at base, got %v", d)
	}
}
