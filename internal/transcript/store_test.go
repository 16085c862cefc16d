package transcript

import (
	"testing"

	"memochat/internal/chat"
)

func msg(id, content, role string) chat.Message {
	return chat.Message{ID: id, Content: content, Role: role}
}

func TestStore_LastLoadWins(t *testing.T) {
	store := NewStore()

	genA := store.StartLoad("sess_a")
	genB := store.StartLoad("sess_b")

	// B's fetch resolves first.
	if !store.ApplyLoad(genB, []chat.Message{msg("b1", "from b", chat.RoleUser)}) {
		t.Fatal("B's load should apply")
	}
	// A's late result must be discarded.
	if store.ApplyLoad(genA, []chat.Message{msg("a1", "from a", chat.RoleUser)}) {
		t.Fatal("A's stale load should be discarded")
	}

	got := store.Messages()
	if len(got) != 1 || got[0].ID != "b1" {
		t.Fatalf("transcript=%+v, want only b1", got)
	}
	if store.SessionID() != "sess_b" {
		t.Fatalf("SessionID=%q, want %q", store.SessionID(), "sess_b")
	}
}

func TestStore_EmptySessionClears(t *testing.T) {
	store := NewStore()

	gen := store.StartLoad("sess_a")
	store.ApplyLoad(gen, []chat.Message{msg("a1", "hi", chat.RoleUser)})

	store.StartLoad("")
	if got := store.Messages(); len(got) != 0 {
		t.Fatalf("transcript=%+v, want empty", got)
	}

	// The clear also invalidates the in-flight load.
	if store.ApplyLoad(gen, []chat.Message{msg("a2", "late", chat.RoleUser)}) {
		t.Fatal("load from before the clear should be discarded")
	}
}

func TestStore_ReplacePreservesSurvivorOrder(t *testing.T) {
	store := NewStore()
	store.Append(msg("m1", "one", chat.RoleUser))
	store.Append(msg("temp-5", "pending", chat.RoleUser))
	store.Append(msg("m2", "two", chat.RoleAssistant))

	store.Replace(
		func(m chat.Message) bool { return m.ID == "temp-5" },
		msg("user-a1", "pending", chat.RoleUser),
		msg("a1", "reply", chat.RoleAssistant),
	)

	got := store.Messages()
	wantIDs := []string{"m1", "m2", "user-a1", "a1"}
	if len(got) != len(wantIDs) {
		t.Fatalf("len=%d, want %d: %+v", len(got), len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("msg[%d].ID=%q, want %q", i, got[i].ID, id)
		}
	}
}

func TestStore_PendingCount(t *testing.T) {
	store := NewStore()
	store.Append(msg("m1", "one", chat.RoleUser))
	store.Append(msg("temp-1", "p1", chat.RoleUser))
	store.Append(msg("temp-2", "p2", chat.RoleUser))

	if got := store.PendingCount(); got != 2 {
		t.Fatalf("PendingCount=%d, want 2", got)
	}
}
