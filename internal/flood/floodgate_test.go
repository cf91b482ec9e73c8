package flood

import (
	"fmt"
	"testing"
	"time"
)

func TestFloodgate_AllowsUpToLimit(t *testing.T) {
	fg := New(3)
	defer fg.Stop()

	client := "203.0.113.10"
	for i := 0; i < 3; i++ {
		if !fg.CheckRequest(client) {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	if fg.CheckRequest(client) {
		t.Error("request over the limit should be blocked")
	}
}

func TestFloodgate_SlidingWindow(t *testing.T) {
	fg := New(2)
	defer fg.Stop()

	client := "203.0.113.11"
	if !fg.CheckRequest(client) || !fg.CheckRequest(client) {
		t.Fatal("first two requests should be allowed")
	}
	if fg.CheckRequest(client) {
		t.Fatal("third request inside the window should be blocked")
	}

	// Age the recorded timestamps past the window instead of sleeping.
	fg.mutex.Lock()
	entry := fg.entries[client]
	for i := range entry.timestamps {
		entry.timestamps[i] = entry.timestamps[i].Add(-61 * time.Second)
	}
	fg.mutex.Unlock()

	if !fg.CheckRequest(client) {
		t.Error("request should be allowed after the window slides past old timestamps")
	}
}

func TestFloodgate_ClientsAreIndependent(t *testing.T) {
	fg := New(1)
	defer fg.Stop()

	if !fg.CheckRequest("203.0.113.20") {
		t.Error("first client's request should be allowed")
	}
	if fg.CheckRequest("203.0.113.20") {
		t.Error("first client's second request should be blocked")
	}
	if !fg.CheckRequest("203.0.113.21") {
		t.Error("second client should not be affected by the first client's limit")
	}
}

func TestFloodgate_GetStats(t *testing.T) {
	fg := New(5)
	defer fg.Stop()

	for i := 0; i < 3; i++ {
		fg.CheckRequest(fmt.Sprintf("203.0.113.%d", 30+i))
	}

	stats := fg.GetStats()
	if stats.ActiveClients != 3 {
		t.Errorf("ActiveClients = %d, want 3", stats.ActiveClients)
	}
	if stats.LimitPerMinute != 5 {
		t.Errorf("LimitPerMinute = %d, want 5", stats.LimitPerMinute)
	}
	if stats.WindowSeconds != 60 {
		t.Errorf("WindowSeconds = %d, want 60", stats.WindowSeconds)
	}
}

func TestFloodgate_PerformCleanup(t *testing.T) {
	fg := New(5)
	defer fg.Stop()

	fg.CheckRequest("203.0.113.40")
	fg.CheckRequest("203.0.113.41")

	// Mark one client as long idle.
	fg.mutex.Lock()
	fg.entries["203.0.113.40"].lastSeen = time.Now().Add(-11 * time.Minute)
	fg.mutex.Unlock()

	fg.performCleanup()

	stats := fg.GetStats()
	if stats.ActiveClients != 1 {
		t.Errorf("ActiveClients = %d after cleanup, want 1", stats.ActiveClients)
	}
}
