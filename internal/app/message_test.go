package app

import (
	"context"
	"errors"
	"testing"

	"revendo/pkg/domain"
)

func TestSendMessageAndConversations(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	alice := seedUser(t, memStore, "alice")
	bob := seedUser(t, memStore, "bob")
	product := seedProduct(t, memStore, bob, "60.00")

	first, err := a.SendMessage(ctx, alice, bob.ID, product.ID, "", "is the record player still available?")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if first.ThreadID == "" || first.Type != domain.MessageText {
		t.Fatalf("message = %+v, want text message with thread", first)
	}
	reply, err := a.SendMessage(ctx, bob, alice.ID, product.ID, first.ThreadID, "yes, it is")
	if err != nil {
		t.Fatalf("send reply: %v", err)
	}
	if reply.ThreadID != first.ThreadID {
		t.Fatalf("reply thread = %q, want %q", reply.ThreadID, first.ThreadID)
	}
	// A second, unrelated thread.
	if _, err := a.SendMessage(ctx, alice, bob.ID, "", "", "unrelated question"); err != nil {
		t.Fatalf("send second thread: %v", err)
	}

	conversations, err := a.ListConversations(alice)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("conversations = %d, want 2", len(conversations))
	}
	// Newest thread first; within a thread, newest message first.
	if conversations[0].Messages[0].Text != "unrelated question" {
		t.Fatalf("first conversation head = %q, want newest thread", conversations[0].Messages[0].Text)
	}
	productThread := conversations[1]
	if len(productThread.Messages) != 2 {
		t.Fatalf("product thread messages = %d, want 2", len(productThread.Messages))
	}
	if productThread.Messages[0].Text != "yes, it is" {
		t.Fatalf("thread head = %q, want newest message", productThread.Messages[0].Text)
	}
	if productThread.ProductID != product.ID {
		t.Fatalf("thread product = %q, want %q", productThread.ProductID, product.ID)
	}
}

func TestSendMessageValidation(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	alice := seedUser(t, memStore, "alice")
	bob := seedUser(t, memStore, "bob")

	if _, err := a.SendMessage(ctx, alice, bob.ID, "", "", "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank text: %v, want ErrValidation", err)
	}
	if _, err := a.SendMessage(ctx, alice, alice.ID, "", "", "hello me"); !errors.Is(err, ErrValidation) {
		t.Fatalf("self message: %v, want ErrValidation", err)
	}
	if _, err := a.SendMessage(ctx, alice, "missing", "", "", "hello"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown recipient: %v, want ErrNotFound", err)
	}
}

func TestMarkMessageReadRecipientOnly(t *testing.T) {
	a, memStore, _ := newTestApp(t)
	ctx := context.Background()
	alice := seedUser(t, memStore, "alice")
	bob := seedUser(t, memStore, "bob")

	msg, err := a.SendMessage(ctx, alice, bob.ID, "", "", "hello")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	unread, err := a.ListUnreadMessages(bob)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("unread = %d, want 1", len(unread))
	}

	if err := a.MarkMessageRead(alice, msg.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("sender marking read: %v, want ErrNotAuthorized", err)
	}
	if err := a.MarkMessageRead(bob, msg.ID); err != nil {
		t.Fatalf("recipient marking read: %v", err)
	}
	unread, err = a.ListUnreadMessages(bob)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("unread after read = %d, want 0", len(unread))
	}
	// Marking twice is a no-op.
	if err := a.MarkMessageRead(bob, msg.ID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
}
