package messaging

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/eduverse/tutorhub-server-go/internal/store"
)

// PrivateMessage is one direct message between two users.
type PrivateMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"isRead"`
}

func between(msg PrivateMessage, a, b string) bool {
	return (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a)
}

// SendMessage appends a message to the log. Messages start unread.
func SendMessage(ctx context.Context, st *store.Store, senderID, receiverID, text string) (PrivateMessage, error) {
	if senderID == "" || receiverID == "" || text == "" {
		return PrivateMessage{}, ErrMissingFields
	}
	if senderID == receiverID {
		return PrivateMessage{}, ErrSelfMessage
	}

	msg := PrivateMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Timestamp:  time.Now(),
		IsRead:     false,
	}

	err := st.Update(ctx, store.CollectionMessages, func(read func(dest interface{}) bool) (interface{}, error) {
		var messages []PrivateMessage
		read(&messages)
		return append(messages, msg), nil
	})
	if err != nil {
		return PrivateMessage{}, err
	}

	return msg, nil
}

// GetMessages returns the conversation between two users in both directions,
// oldest first. Equal timestamps keep insertion order.
func GetMessages(ctx context.Context, st *store.Store, userID, friendID string) ([]PrivateMessage, error) {
	var messages []PrivateMessage
	st.Read(ctx, store.CollectionMessages, &messages)

	conversation := make([]PrivateMessage, 0)
	for _, msg := range messages {
		if between(msg, userID, friendID) {
			conversation = append(conversation, msg)
		}
	}

	sort.SliceStable(conversation, func(i, j int) bool {
		return conversation[i].Timestamp.Before(conversation[j].Timestamp)
	})

	return conversation, nil
}

// GetLastMessage returns the newest message of a conversation for chat-list
// previews.
func GetLastMessage(ctx context.Context, st *store.Store, userID, friendID string) (PrivateMessage, bool) {
	conversation, err := GetMessages(ctx, st, userID, friendID)
	if err != nil || len(conversation) == 0 {
		return PrivateMessage{}, false
	}
	return conversation[len(conversation)-1], true
}

// MarkAsRead flags every message from friend to user as read. When nothing
// is unread the store write is skipped entirely.
func MarkAsRead(ctx context.Context, st *store.Store, userID, friendID string) error {
	return st.Update(ctx, store.CollectionMessages, func(read func(dest interface{}) bool) (interface{}, error) {
		var messages []PrivateMessage
		read(&messages)

		changed := false
		for i := range messages {
			if messages[i].SenderID == friendID && messages[i].ReceiverID == userID && !messages[i].IsRead {
				messages[i].IsRead = true
				changed = true
			}
		}

		if !changed {
			return nil, nil
		}
		return messages, nil
	})
}

// CountUnread returns per-sender unread counts for a user's chat list.
func CountUnread(ctx context.Context, st *store.Store, userID string) (map[string]int, error) {
	var messages []PrivateMessage
	st.Read(ctx, store.CollectionMessages, &messages)

	counts := map[string]int{}
	for _, msg := range messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			counts[msg.SenderID]++
		}
	}
	return counts, nil
}
