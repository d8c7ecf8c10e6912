package ws

import (
	"fmt"
	"sync"
	"testing"
)

func fakeClient(userID uint, connID string) *Client {
	return &Client{ID: connID, UserID: userID, send: make(chan []byte, 256)}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	c1 := fakeClient(1, "conn-a")
	c2 := fakeClient(1, "conn-b")
	reg.Register(c1)
	reg.Register(c2)

	if got := reg.Online(1); got != 2 {
		t.Errorf("Online(1) = %d, want 2", got)
	}
	clients := reg.ClientsFor(1)
	if len(clients) != 2 {
		t.Fatalf("ClientsFor(1) = %d clients, want 2", len(clients))
	}
	seen := map[string]bool{}
	for _, c := range clients {
		seen[c.ID] = true
	}
	if !seen["conn-a"] || !seen["conn-b"] {
		t.Errorf("ClientsFor(1) missing registered connections: %v", seen)
	}
}

func TestRegistry_RegisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := fakeClient(1, "conn-a")

	reg.Register(c)
	reg.Register(c)

	if got := reg.Online(1); got != 1 {
		t.Errorf("Online(1) after double register = %d, want 1", got)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	c := fakeClient(1, "conn-a")
	reg.Register(c)

	reg.Unregister(1, "conn-a")
	if got := reg.Online(1); got != 0 {
		t.Errorf("Online(1) after unregister = %d, want 0", got)
	}
	if got := reg.ClientsFor(1); got != nil {
		t.Errorf("ClientsFor(1) after unregister = %v, want nil", got)
	}
}

func TestRegistry_UnregisterAbsentIsNoop(t *testing.T) {
	reg := NewRegistry()

	// 乱序断连：从未注册过的 (user, conn) 不应 panic 或报错
	reg.Unregister(1, "never-registered")

	c := fakeClient(1, "conn-a")
	reg.Register(c)
	reg.Unregister(1, "conn-a")
	reg.Unregister(1, "conn-a")

	if got := reg.Online(1); got != 0 {
		t.Errorf("Online(1) after double unregister = %d, want 0", got)
	}
}

func TestRegistry_DropsEmptyUserEntry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(fakeClient(7, "conn-a"))
	reg.Unregister(7, "conn-a")

	reg.mu.RLock()
	_, exists := reg.conns[7]
	reg.mu.RUnlock()
	if exists {
		t.Error("user entry should be dropped when its connection set becomes empty")
	}
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.Register(fakeClient(1, "conn-a"))

	snap := reg.ClientsFor(1)
	reg.Unregister(1, "conn-a")

	// 快照在并发注销之后依然完整
	if len(snap) != 1 || snap[0].ID != "conn-a" {
		t.Errorf("snapshot mutated by later unregister: %v", snap)
	}
}

func TestRegistry_UsersAreIndependent(t *testing.T) {
	reg := NewRegistry()
	reg.Register(fakeClient(1, "conn-a"))
	reg.Register(fakeClient(2, "conn-b"))

	reg.Unregister(1, "conn-a")

	if got := reg.Online(2); got != 1 {
		t.Errorf("Online(2) = %d, want 1", got)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := NewRegistry()
	const perUser = 50

	var wg sync.WaitGroup
	for user := uint(1); user <= 4; user++ {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(u uint, n int) {
				defer wg.Done()
				reg.Register(fakeClient(u, fmt.Sprintf("conn-%d", n)))
			}(user, i)
		}
	}
	wg.Wait()

	for user := uint(1); user <= 4; user++ {
		if got := reg.Online(user); got != perUser {
			t.Errorf("Online(%d) after concurrent register = %d, want %d", user, got, perUser)
		}
	}

	// 并发注销一半，剩下的数量必须精确
	for user := uint(1); user <= 4; user++ {
		for i := 0; i < perUser/2; i++ {
			wg.Add(1)
			go func(u uint, n int) {
				defer wg.Done()
				reg.Unregister(u, fmt.Sprintf("conn-%d", n))
			}(user, i)
		}
	}
	wg.Wait()

	for user := uint(1); user <= 4; user++ {
		if got := reg.Online(user); got != perUser/2 {
			t.Errorf("Online(%d) after concurrent unregister = %d, want %d", user, got, perUser/2)
		}
	}
}
