package membership

import "testing"

func id(b byte) NodeID {
	var n NodeID
	n[0] = b
	return n
}

func TestInsertIfAbsentIdempotent(t *testing.T) {
	r := New()
	a := id(1)

	if !r.InsertIfAbsent(a, "ada") {
		t.Fatal("first insert should report true")
	}
	if r.InsertIfAbsent(a, "ada") {
		t.Fatal("second insert of the same id should report false")
	}

	name, ok := r.Get(a)
	if !ok || name != "ada" {
		t.Fatalf("Get = (%q, %v), want (ada, true)", name, ok)
	}
}

func TestRemoveThenGetAbsent(t *testing.T) {
	r := New()
	a := id(2)
	r.InsertIfAbsent(a, "bob")

	if _, ok := r.Remove(a); !ok {
		t.Fatal("Remove should report the member was present")
	}
	if _, ok := r.Get(a); ok {
		t.Fatal("Get after Remove should report absent")
	}
	if _, ok := r.Remove(a); ok {
		t.Fatal("second Remove should report absent")
	}
}

func TestSnapshotSortedByName(t *testing.T) {
	r := New()
	r.InsertIfAbsent(id(3), "carol")
	r.InsertIfAbsent(id(1), "alice")
	r.InsertIfAbsent(id(2), "bob")

	snap := r.SnapshotSortedByName()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	want := []string{"alice", "bob", "carol"}
	for i, w := range want {
		if snap[i].Name != w {
			t.Fatalf("snap[%d].Name = %q, want %q", i, snap[i].Name, w)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			r.InsertIfAbsent(id(byte(i%256)), "x")
		}
		close(done)
	}()

	for i := 0; i < 1000; i++ {
		r.SnapshotSortedByName()
	}
	<-done
}
