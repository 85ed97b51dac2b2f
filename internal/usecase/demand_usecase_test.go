package usecase

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/service"
)

// Tree used below:
//
//	home -> plumbing -> pipes
//	garden
type demandFixture struct {
	users      *fakeUserRepo
	categories *fakeCategoryRepo
	demands    *fakeDemandRepo
	notifier   *recordingNotifier
	push       *recordingPush
	uc         *DemandUseCase
}

func newDemandFixture(demands ...*entity.Demand) *demandFixture {
	f := &demandFixture{
		users: newFakeUserRepo(
			&entity.User{ID: "r1", UserType: entity.UserTypeReceiver, IsActive: true},
			&entity.User{ID: "p1", UserType: entity.UserTypeProvider, IsActive: true},
			&entity.User{ID: "p2", UserType: entity.UserTypeProvider, IsActive: true},
		),
		categories: newFakeCategoryRepo(
			&entity.Category{ID: "home", Name: "Home", IsActive: true},
			&entity.Category{ID: "plumbing", Name: "Plumbing", ParentID: strPtr("home"), IsActive: true},
			&entity.Category{ID: "pipes", Name: "Pipes", ParentID: strPtr("plumbing"), IsActive: true},
			&entity.Category{ID: "garden", Name: "Garden", IsActive: true},
			&entity.Category{ID: "retired", Name: "Retired", IsActive: false},
		),
		demands:  newFakeDemandRepo(demands...),
		notifier: &recordingNotifier{},
		push:     newRecordingPush(),
	}
	f.users.categories["p1"] = []string{"plumbing"}
	resolver := service.NewVisibilityResolver(f.categories, f.users)
	f.uc = NewDemandUseCase(f.demands, f.categories, resolver, f.notifier, f.push)
	return f
}

func approvedDemand(id, category string) *entity.Demand {
	return &entity.Demand{ID: id, UserID: "r1", CategoryID: category, Status: entity.DemandStatusActive, IsApproved: true}
}

func ids(ds []*entity.Demand) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func TestDemandCreate(t *testing.T) {
	ctx := context.Background()
	f := newDemandFixture()

	d, err := f.uc.Create(ctx, receiver, CreateDemandInput{CategoryID: "pipes", Title: " Leaking sink "})
	require.NoError(t, err)
	assert.Equal(t, "Leaking sink", d.Title)
	assert.Equal(t, entity.DemandStatusActive, d.Status)
	assert.False(t, d.IsApproved)
	assert.Equal(t, int64(1000000), d.DemandNumber)

	_, err = f.uc.Create(ctx, provider, CreateDemandInput{CategoryID: "pipes", Title: "x"})
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.uc.Create(ctx, receiver, CreateDemandInput{CategoryID: "missing", Title: "x"})
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = f.uc.Create(ctx, receiver, CreateDemandInput{CategoryID: "retired", Title: "x"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestDemandList_ProviderSeesApprovedDemandsInClosure(t *testing.T) {
	pending := approvedDemand("d-pending", "pipes")
	pending.IsApproved = false
	f := newDemandFixture(
		approvedDemand("d-plumbing", "plumbing"),
		approvedDemand("d-pipes", "pipes"),
		approvedDemand("d-home", "home"),
		approvedDemand("d-garden", "garden"),
		pending,
	)

	got, total, err := f.uc.List(context.Background(), provider, ListDemandsInput{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.ElementsMatch(t, []string{"d-plumbing", "d-pipes"}, ids(got))
}

func TestDemandList_CategoryFilterOutsideClosureIsEmpty(t *testing.T) {
	f := newDemandFixture(approvedDemand("d-garden", "garden"))

	got, total, err := f.uc.List(context.Background(), provider, ListDemandsInput{CategoryID: "garden", Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)
}

func TestDemandList_UnsubscribedProviderSeesAllApproved(t *testing.T) {
	pending := approvedDemand("d-pending", "garden")
	pending.IsApproved = false
	f := newDemandFixture(approvedDemand("d-home", "home"), approvedDemand("d-garden", "garden"), pending)

	got, _, err := f.uc.List(context.Background(), provider2, ListDemandsInput{Limit: 20})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d-home", "d-garden"}, ids(got))
}

func TestDemandList_ReceiverSeesOwnOnly(t *testing.T) {
	other := approvedDemand("d-other", "home")
	other.UserID = "r2"
	f := newDemandFixture(approvedDemand("d-mine", "home"), other)

	got, _, err := f.uc.List(context.Background(), receiver, ListDemandsInput{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"d-mine"}, ids(got))

	all, _, err := f.uc.List(context.Background(), Actor{UserID: "admin", IsAdmin: true}, ListDemandsInput{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDemandGet_Visibility(t *testing.T) {
	pending := approvedDemand("d-pending", "pipes")
	pending.IsApproved = false
	f := newDemandFixture(approvedDemand("d-pipes", "pipes"), approvedDemand("d-garden", "garden"), pending)
	ctx := context.Background()

	_, err := f.uc.Get(ctx, provider, "d-pipes")
	assert.NoError(t, err)

	cases := []struct {
		name   string
		actor  Actor
		id     string
		status int
	}{
		{"outside closure", provider, "d-garden", http.StatusForbidden},
		{"not yet approved", provider, "d-pending", http.StatusForbidden},
		{"another receiver", Actor{UserID: "r2", UserType: entity.UserTypeReceiver}, "d-pipes", http.StatusForbidden},
		{"missing", provider, "nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Get(ctx, tc.actor, tc.id)
			require.Error(t, err)
			assert.Equal(t, tc.status, statusOf(err))
		})
	}

	owned, err := f.uc.Get(ctx, receiver, "d-pending")
	require.NoError(t, err)
	assert.Equal(t, "d-pending", owned.ID)
}

func TestDemandCancel(t *testing.T) {
	ctx := context.Background()
	f := newDemandFixture(approvedDemand("d1", "home"))

	_, err := f.uc.Cancel(ctx, provider, "d1")
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	d, err := f.uc.Cancel(ctx, receiver, "d1")
	require.NoError(t, err)
	assert.Equal(t, entity.DemandStatusCancelled, d.Status)

	_, err = f.uc.Cancel(ctx, receiver, "d1")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestDemandDelete(t *testing.T) {
	ctx := context.Background()
	f := newDemandFixture(approvedDemand("d1", "home"), approvedDemand("d2", "home"))

	assert.Equal(t, http.StatusForbidden, statusOf(f.uc.Delete(ctx, provider, "d1")))
	require.NoError(t, f.uc.Delete(ctx, receiver, "d1"))
	require.NoError(t, f.uc.Delete(ctx, Actor{UserID: "admin", IsAdmin: true}, "d2"))
	assert.Empty(t, f.demands.demands)
}

func TestDemandApprove_NotifiesOwnerAndAnnouncesToAncestors(t *testing.T) {
	pending := approvedDemand("d1", "pipes")
	pending.IsApproved = false
	f := newDemandFixture(pending)

	d, err := f.uc.Approve(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, d.IsApproved)
	assert.Equal(t, []entity.NotificationType{entity.NotificationDemandApproved}, f.notifier.kinds())
	assert.Equal(t, []string{
		CategoryTopic("pipes"), CategoryTopic("plumbing"), CategoryTopic("home"),
	}, f.push.topics)
}

func TestDemandReject(t *testing.T) {
	pending := approvedDemand("d1", "pipes")
	pending.IsApproved = false
	f := newDemandFixture(pending)

	d, err := f.uc.Reject(context.Background(), "d1", "duplicate post")
	require.NoError(t, err)
	assert.False(t, d.IsApproved)
	assert.Equal(t, entity.DemandStatusCancelled, d.Status)
	assert.Equal(t, []entity.NotificationType{entity.NotificationDemandRejected}, f.notifier.kinds())
	assert.Empty(t, f.push.topics)

	_, err = f.uc.Reject(context.Background(), "missing", "")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestDemandAdminList(t *testing.T) {
	pending := approvedDemand("d-pending", "pipes")
	pending.IsApproved = false
	f := newDemandFixture(approvedDemand("d-ok", "pipes"), pending)

	approved := false
	got, total, err := f.uc.AdminList(context.Background(), AdminListDemandsInput{Approved: &approved, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"d-pending"}, ids(got))
}
