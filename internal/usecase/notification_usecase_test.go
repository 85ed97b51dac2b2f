package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
)

func TestNotificationDispatcher_StoresPublishesAndPushes(t *testing.T) {
	repo := &fakeNotificationRepo{}
	users := newFakeUserRepo(&entity.User{ID: "u1", FCMToken: "tok-1", IsActive: true})
	push := newRecordingPush()
	rt := &recordingRealtime{}
	d := NewNotificationDispatcher(repo, users, push, rt)

	d.Notify(context.Background(), "u1", entity.NotificationNewOffer, "New offer", "msg", map[string]string{"offerId": "o1"})

	require.Len(t, repo.items, 1)
	n := repo.items[0]
	assert.Equal(t, entity.NotificationNewOffer, n.Type)
	assert.False(t, n.IsRead)

	var data map[string]string
	require.NoError(t, json.Unmarshal(n.Data, &data))
	assert.Equal(t, "o1", data["offerId"])

	assert.Equal(t, 1, rt.events["u1"])
	assert.Equal(t, []string{"tok-1"}, push.tokens)
}

func TestNotificationDispatcher_FailuresAreSwallowed(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ID: "u1", FCMToken: "tok-1"}, &entity.User{ID: "u2"})
	push := newRecordingPush()
	push.err = stderrors.New("fcm down")

	d := NewNotificationDispatcher(&fakeNotificationRepo{}, users, push, nil)
	assert.NotPanics(t, func() {
		d.Notify(context.Background(), "u1", entity.NotificationOfferAccepted, "t", "m", nil)
		d.Notify(context.Background(), "u2", entity.NotificationOfferAccepted, "t", "m", nil)
		d.Notify(context.Background(), "ghost", entity.NotificationOfferAccepted, "t", "m", nil)
	})

	failing := &fakeNotificationRepo{err: stderrors.New("db down")}
	quiet := newRecordingPush()
	NewNotificationDispatcher(failing, users, quiet, nil).
		Notify(context.Background(), "u1", entity.NotificationOfferAccepted, "t", "m", nil)
	assert.Empty(t, quiet.tokens, "nothing is pushed for a notification that was not stored")
}

func TestNotificationUseCase_ReadFlow(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{items: []*entity.Notification{
		{ID: "n1", UserID: "u1"},
		{ID: "n2", UserID: "u1"},
		{ID: "n3", UserID: "u1", IsRead: true},
		{ID: "n4", UserID: "u2"},
	}}
	uc := NewNotificationUseCase(repo, newFakeUserRepo(), newRecordingPush())

	unread, err := uc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	items, total, err := uc.List(ctx, "u1", true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	n, err := uc.MarkRead(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	_, err = uc.MarkRead(ctx, "u1", "n4")
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = uc.MarkRead(ctx, "u1", "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	changed, err := uc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	unread, err = uc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationUseCase_Broadcast(t *testing.T) {
	providerType := entity.UserTypeProvider
	users := newFakeUserRepo(
		&entity.User{ID: "p1", UserType: entity.UserTypeProvider, IsActive: true, FCMToken: "a"},
		&entity.User{ID: "p2", UserType: entity.UserTypeProvider, IsActive: true},
		&entity.User{ID: "p3", UserType: entity.UserTypeProvider, IsActive: false, FCMToken: "c"},
		&entity.User{ID: "r1", UserType: entity.UserTypeReceiver, IsActive: true, FCMToken: "d"},
	)
	push := newRecordingPush()
	uc := NewNotificationUseCase(&fakeNotificationRepo{}, users, push)

	sent, err := uc.Broadcast(context.Background(), BroadcastInput{UserType: &providerType, Title: "Hi", Message: "News"})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, [][]string{{"a"}}, push.multicast)

	sent, err = uc.Broadcast(context.Background(), BroadcastInput{Title: "All", Message: "News"})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}
