package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/eduverse/tutorhub-server-go/internal/store"
)

func newTestStore() *store.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.New(store.NewMemoryBackend(), logger)
}

type countingBackend struct {
	inner *store.MemoryBackend
	saves int
}

func (c *countingBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	return c.inner.Load(ctx, collection)
}

func (c *countingBackend) Save(ctx context.Context, collection string, data []byte) error {
	c.saves++
	return c.inner.Save(ctx, collection, data)
}

func TestSendMessageValidation(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := SendMessage(ctx, st, "u1", "u1", "hi"); !errors.Is(err, ErrSelfMessage) {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}
	if _, err := SendMessage(ctx, st, "u1", "u2", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	msg, err := SendMessage(ctx, st, "u1", "u2", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.IsRead {
		t.Fatalf("expected new messages to start unread")
	}
	if msg.ID == "" {
		t.Fatalf("expected generated message id")
	}
}

func TestConversationIsBidirectionalAndOrdered(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	sends := []struct{ from, to, text string }{
		{"u1", "u2", "hey"},
		{"u2", "u1", "hello"},
		{"u1", "u2", "how are you"},
		{"u1", "u3", "unrelated"},
	}
	for _, s := range sends {
		if _, err := SendMessage(ctx, st, s.from, s.to, s.text); err != nil {
			t.Fatalf("send %q: %v", s.text, err)
		}
	}

	conversation, err := GetMessages(ctx, st, "u1", "u2")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(conversation) != 3 {
		t.Fatalf("expected 3 messages in the pair, got %d", len(conversation))
	}
	for i, want := range []string{"hey", "hello", "how are you"} {
		if conversation[i].Text != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, conversation[i].Text)
		}
	}

	// the same thread read from the other side
	mirrored, err := GetMessages(ctx, st, "u2", "u1")
	if err != nil {
		t.Fatalf("get mirrored messages: %v", err)
	}
	if len(mirrored) != 3 {
		t.Fatalf("expected identical thread from either side, got %d", len(mirrored))
	}
}

func TestGetLastMessage(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, found := GetLastMessage(ctx, st, "u1", "u2"); found {
		t.Fatalf("expected no last message for empty thread")
	}

	if _, err := SendMessage(ctx, st, "u1", "u2", "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := SendMessage(ctx, st, "u2", "u1", "latest"); err != nil {
		t.Fatalf("send: %v", err)
	}

	last, found := GetLastMessage(ctx, st, "u1", "u2")
	if !found {
		t.Fatalf("expected last message")
	}
	if last.Text != "latest" {
		t.Fatalf("expected newest message, got %q", last.Text)
	}
}

func TestMarkAsReadFlipsOnlyIncoming(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := SendMessage(ctx, st, "u2", "u1", "incoming"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := SendMessage(ctx, st, "u1", "u2", "outgoing"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := MarkAsRead(ctx, st, "u1", "u2"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	conversation, err := GetMessages(ctx, st, "u1", "u2")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	for _, msg := range conversation {
		if msg.ReceiverID == "u1" && !msg.IsRead {
			t.Fatalf("expected incoming message read")
		}
		if msg.ReceiverID == "u2" && msg.IsRead {
			t.Fatalf("expected outgoing message untouched")
		}
	}
}

func TestMarkAsReadSkipsWriteWhenNothingUnread(t *testing.T) {
	backend := &countingBackend{inner: store.NewMemoryBackend()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(backend, logger)
	ctx := context.Background()

	if _, err := SendMessage(ctx, st, "u2", "u1", "incoming"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := MarkAsRead(ctx, st, "u1", "u2"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	savesBefore := backend.saves
	if err := MarkAsRead(ctx, st, "u1", "u2"); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if backend.saves != savesBefore {
		t.Fatalf("expected no write when nothing flips, saves went %d -> %d", savesBefore, backend.saves)
	}
}

func TestCountUnread(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := SendMessage(ctx, st, "u2", "u1", "a"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := SendMessage(ctx, st, "u2", "u1", "b"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := SendMessage(ctx, st, "u3", "u1", "c"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := SendMessage(ctx, st, "u1", "u2", "reply"); err != nil {
		t.Fatalf("send: %v", err)
	}

	counts, err := CountUnread(ctx, st, "u1")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if counts["u2"] != 2 || counts["u3"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	if err := MarkAsRead(ctx, st, "u1", "u2"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	counts, err = CountUnread(ctx, st, "u1")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if counts["u2"] != 0 || counts["u3"] != 1 {
		t.Fatalf("expected u2 cleared, got %v", counts)
	}
}
