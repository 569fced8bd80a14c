package transcripts

import (
	"slices"
	"testing"
	"time"
)

func TestStoreAppendsLinesPerCall(t *testing.T) {
	store := NewStore()
	store.Open("CA1")
	store.Append("CA1", "Customer", "hello")
	store.Append("CA1", "Agent", "hi there")

	lines, ok := store.Lines("CA1")
	if !ok {
		t.Fatal("expected call CA1 to be known")
	}
	want := []string{"Customer: hello", "Agent: hi there"}
	if !slices.Equal(lines, want) {
		t.Fatalf("expected %v, got %v", want, lines)
	}
}

func TestStoreLinesUnknownCall(t *testing.T) {
	store := NewStore()
	if _, ok := store.Lines("CA404"); ok {
		t.Fatal("expected unknown call to report missing")
	}
}

func TestStoreOpenRegistersCallBeforeLines(t *testing.T) {
	store := NewStore()
	store.Open("CA1")

	if sids := store.CallSIDs(); len(sids) != 1 || sids[0] != "CA1" {
		t.Fatalf("expected CA1 listed after open, got %v", sids)
	}
	lines, ok := store.Lines("CA1")
	if !ok || len(lines) != 0 {
		t.Fatalf("expected an empty transcript after open, got %v (known=%t)", lines, ok)
	}
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	store := NewStore()
	updates, cancel := store.Subscribe()
	defer cancel()

	store.Append("CA1", "Customer", "hello")

	select {
	case snapshot := <-updates:
		if !slices.Equal(snapshot["CA1"], []string{"Customer: hello"}) {
			t.Fatalf("expected snapshot with the new line, got %v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a notification after append")
	}
}

func TestStoreCancelledSubscriberStopsReceiving(t *testing.T) {
	store := NewStore()
	updates, cancel := store.Subscribe()
	cancel()

	store.Append("CA1", "Customer", "hello")

	if _, open := <-updates; open {
		t.Fatal("expected the subscription channel to be closed after cancel")
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	store.Append("CA1", "Customer", "hello")

	snapshot := store.Snapshot()
	snapshot["CA1"][0] = "tampered"

	lines, _ := store.Lines("CA1")
	if lines[0] != "Customer: hello" {
		t.Fatalf("expected store state to be isolated from snapshots, got %q", lines[0])
	}
}
