package service

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatService(t *testing.T) (*ChatService, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewChatService(store, store), store
}

func TestEnsureConversation_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	svc, store := newChatService(t)
	store.addUser("bob", "Bob Profile")

	conv, err := svc.EnsureConversation(ctx, alice, "bob", "Bob Typed")
	require.NoError(t, err)

	assert.Equal(t, "alice_bob", conv.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, conv.Participants)
	assert.Equal(t, "Bob Profile", conv.ParticipantNames["bob"])
	assert.Equal(t, "Alice Token", conv.ParticipantNames["alice"])

	_, err = svc.SendMessage(ctx, alice, conv.ID, "hi")
	require.NoError(t, err)

	again, err := svc.EnsureConversation(ctx, bob, "alice", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, "Alice Token", again.ParticipantNames["alice"])
	assert.Equal(t, "hi", again.LastMessage)
}

func TestEnsureConversation_RejectsSelf(t *testing.T) {
	svc, store := newChatService(t)

	_, err := svc.EnsureConversation(context.Background(), alice, "alice", "")

	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Empty(t, store.conversations)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	svc, store := newChatService(t)
	conv, err := svc.EnsureConversation(ctx, alice, "bob", "Bob")
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, alice, conv.ID, "  hello there  ")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Text)
	assert.Equal(t, "alice", msg.SenderID)

	_, err = svc.SendMessage(ctx, bob, conv.ID, "hey")
	require.NoError(t, err)

	msgs, err := svc.ListMessages(ctx, bob, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello there", msgs[0].Text)
	assert.Equal(t, "hey", msgs[1].Text)
	assert.Equal(t, "hey", store.conversations[conv.ID].LastMessage)
	assert.NotNil(t, store.conversations[conv.ID].LastMessageTime)
}

func TestSendMessage_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChatService(t)
	conv, err := svc.EnsureConversation(ctx, alice, "bob", "Bob")
	require.NoError(t, err)
	carol := models.Actor{UID: "carol"}

	_, err = svc.SendMessage(ctx, alice, conv.ID, "   ")
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = svc.SendMessage(ctx, carol, conv.ID, "let me in")
	assert.True(t, models.IsCode(err, models.CodePermissionDenied))

	_, err = svc.ListMessages(ctx, carol, conv.ID)
	assert.True(t, models.IsCode(err, models.CodePermissionDenied))

	_, err = svc.SendMessage(ctx, alice, "alice_nobody", "hello")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestSendMessage_PreviewFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	svc, store := newChatService(t)
	conv, err := svc.EnsureConversation(ctx, alice, "bob", "Bob")
	require.NoError(t, err)
	store.failOn("TouchConversation", errors.New("deadline exceeded"))

	msg, err := svc.SendMessage(ctx, alice, conv.ID, "hello")

	assert.True(t, models.IsCode(err, models.CodePartialFailure))
	require.NotNil(t, msg)
	assert.Len(t, store.messages[conv.ID], 1)
	assert.Empty(t, store.conversations[conv.ID].LastMessage)
}

func TestSendMessage_AppendFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newChatService(t)
	conv, err := svc.EnsureConversation(ctx, alice, "bob", "Bob")
	require.NoError(t, err)
	store.failOn("AppendMessage", errors.New("unavailable"))

	_, err = svc.SendMessage(ctx, alice, conv.ID, "hello")

	assert.True(t, models.IsCode(err, models.CodePersistence))
	assert.Empty(t, store.conversations[conv.ID].LastMessage)
}

func TestListConversations_NewestActivityFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newChatService(t)
	withBob, err := svc.EnsureConversation(ctx, alice, "bob", "Bob")
	require.NoError(t, err)
	withCarol, err := svc.EnsureConversation(ctx, alice, "carol", "Carol")
	require.NoError(t, err)
	withDan, err := svc.EnsureConversation(ctx, alice, "dan", "Dan")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, alice, withCarol.ID, "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, alice, withBob.ID, "second")
	require.NoError(t, err)

	convs, err := svc.ListConversations(ctx, alice)
	require.NoError(t, err)

	ids := []string{convs[0].ID, convs[1].ID, convs[2].ID}
	assert.Equal(t, []string{withBob.ID, withCarol.ID, withDan.ID}, ids)
}
