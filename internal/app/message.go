package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"revendo/pkg/domain"
)

const messageMaxLen = 2000

// SendMessage delivers a plain text chat message, optionally continuing
// an existing thread. A new thread is opened when threadID is empty.
func (a *App) SendMessage(ctx context.Context, sender domain.User, recipientID, productID, threadID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > messageMaxLen {
		return domain.Message{}, fmt.Errorf("%w: message text must be 1 to %d characters", ErrValidation, messageMaxLen)
	}
	if recipientID == sender.ID {
		return domain.Message{}, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}
	if _, ok, err := a.store.GetUserByID(recipientID); err != nil {
		return domain.Message{}, fmt.Errorf("fetch recipient: %w", err)
	} else if !ok {
		return domain.Message{}, fmt.Errorf("%w: user %s", ErrNotFound, recipientID)
	}
	if productID != "" {
		if _, ok, err := a.store.GetProduct(productID); err != nil {
			return domain.Message{}, fmt.Errorf("fetch product: %w", err)
		} else if !ok {
			return domain.Message{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
	}
	if threadID == "" {
		threadID = uuid.NewString()
	}
	msg := domain.Message{
		ID:          uuid.NewString(),
		ThreadID:    threadID,
		SenderID:    sender.ID,
		RecipientID: recipientID,
		ProductID:   productID,
		Type:        domain.MessageText,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}
	saved, err := a.store.AppendMessage(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("save message: %w", err)
	}
	a.notifyBestEffort(ctx, recipientID, "New message",
		fmt.Sprintf("%s sent you a message", sender.Name))
	return saved, nil
}

// ListConversations groups the user's messages by thread. Messages
// within a thread and the threads themselves are ordered newest first,
// ties broken by insertion order.
func (a *App) ListConversations(user domain.User) ([]domain.Conversation, error) {
	messages, err := a.store.ListUserMessages(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	byThread := make(map[string][]domain.Message)
	order := make([]string, 0)
	for _, msg := range messages {
		if _, seen := byThread[msg.ThreadID]; !seen {
			order = append(order, msg.ThreadID)
		}
		byThread[msg.ThreadID] = append(byThread[msg.ThreadID], msg)
	}
	conversations := make([]domain.Conversation, 0, len(order))
	for _, threadID := range order {
		msgs := byThread[threadID]
		conversations = append(conversations, domain.Conversation{
			ThreadID:  threadID,
			ProductID: msgs[0].ProductID,
			Messages:  msgs,
		})
	}
	// Threads sorted by their newest message.
	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i].Messages[0], conversations[j].Messages[0]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq > b.Seq
	})
	return conversations, nil
}

// ListUnreadMessages returns the user's unread messages, newest first.
func (a *App) ListUnreadMessages(user domain.User) ([]domain.Message, error) {
	messages, err := a.store.ListUnreadMessages(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}
	return messages, nil
}

// MarkMessageRead flags a message as read. Recipient only.
func (a *App) MarkMessageRead(user domain.User, messageID string) error {
	msg, ok, err := a.store.GetMessage(messageID)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: message %s", ErrNotFound, messageID)
	}
	if msg.RecipientID != user.ID {
		return fmt.Errorf("%w: only the recipient may mark a message read", ErrNotAuthorized)
	}
	if msg.Read {
		return nil
	}
	if err := a.store.MarkMessageRead(messageID); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}
