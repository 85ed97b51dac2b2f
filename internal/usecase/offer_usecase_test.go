package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
)

var (
	receiver  = Actor{UserID: "r1", UserType: entity.UserTypeReceiver}
	provider  = Actor{UserID: "p1", UserType: entity.UserTypeProvider}
	provider2 = Actor{UserID: "p2", UserType: entity.UserTypeProvider}
)

type offerFixture struct {
	users      *fakeUserRepo
	categories *fakeCategoryRepo
	demands    *fakeDemandRepo
	offers     *fakeOfferRepo
	notifier   *recordingNotifier
	uc         *OfferUseCase
}

func newOfferFixture(balance string, rate *decimal.Decimal) *offerFixture {
	f := &offerFixture{
		users: newFakeUserRepo(
			&entity.User{ID: "r1", UserType: entity.UserTypeReceiver, IsActive: true},
			&entity.User{ID: "p1", UserType: entity.UserTypeProvider, IsActive: true, Balance: dec(balance)},
			&entity.User{ID: "p2", UserType: entity.UserTypeProvider, IsActive: true, Balance: dec(balance)},
		),
		categories: newFakeCategoryRepo(&entity.Category{ID: "c1", Name: "Plumbing", IsActive: true, CommissionRate: rate}),
		demands: newFakeDemandRepo(&entity.Demand{
			ID: "d1", DemandNumber: 1000001, UserID: "r1", CategoryID: "c1",
			Status: entity.DemandStatusActive, IsApproved: true,
		}),
		notifier: &recordingNotifier{},
	}
	f.offers = newFakeOfferRepo(f.users, f.demands)
	f.uc = NewOfferUseCase(f.offers, f.demands, f.users, f.categories, f.notifier)
	return f
}

func (f *offerFixture) create(t *testing.T, actor Actor) *entity.Offer {
	t.Helper()
	res, err := f.uc.Create(context.Background(), actor, CreateOfferInput{
		DemandID: "d1", Price: dec("7500"), EstimatedTime: "2 days",
	})
	require.NoError(t, err)
	return res.Offer
}

func TestOfferCreate_ChargesCommission(t *testing.T) {
	f := newOfferFixture("100", decPtr("10"))

	res, err := f.uc.Create(context.Background(), provider, CreateOfferInput{
		DemandID: "d1", Price: dec("7500"), EstimatedTime: " 2 days ",
	})
	require.NoError(t, err)

	assert.True(t, res.CommissionAmount.Equal(dec("75")), "got %s", res.CommissionAmount)
	assert.True(t, res.NewBalance.Equal(dec("25")))
	assert.True(t, f.users.balance("p1").Equal(dec("25")))
	assert.Equal(t, entity.OfferStatusPending, res.Offer.Status)
	assert.True(t, res.Offer.IsApproved)
	assert.Equal(t, "2 days", res.Offer.EstimatedTime)
	assert.Equal(t, []entity.NotificationType{entity.NotificationNewOffer}, f.notifier.kinds())
	assert.Equal(t, "r1", f.notifier.sent[0].UserID)
}

func TestOfferCreate_MessageAtLimit(t *testing.T) {
	f := newOfferFixture("100", nil)

	res, err := f.uc.Create(context.Background(), provider, CreateOfferInput{
		DemandID: "d1", Price: dec("10"), EstimatedTime: "1 day", Message: strings.Repeat("ü", 1000),
	})
	require.NoError(t, err)
	assert.Len(t, []rune(res.Offer.Message), 1000)
}

func TestOfferCreate_SubCentCommissionRoundsToCents(t *testing.T) {
	f := newOfferFixture("10", decPtr("10"))

	res, err := f.uc.Create(context.Background(), provider, CreateOfferInput{
		DemandID: "d1", Price: dec("1.5"), EstimatedTime: "1 day",
	})
	require.NoError(t, err)

	// 1.5 * 10 / 1000 = 0.015, charged as 0.02.
	assert.Equal(t, "0.02", res.CommissionAmount.String())
	assert.Equal(t, "9.98", res.NewBalance.String())
	assert.True(t, f.users.balance("p1").Equal(res.NewBalance))
	assert.True(t, res.Offer.CommissionAmount.Equal(res.CommissionAmount))
}

func TestOfferCreate_NoRateIsFree(t *testing.T) {
	f := newOfferFixture("0", nil)

	res, err := f.uc.Create(context.Background(), provider, CreateOfferInput{
		DemandID: "d1", Price: dec("7500"), EstimatedTime: "1 day",
	})
	require.NoError(t, err)
	assert.True(t, res.CommissionAmount.IsZero())
	assert.True(t, res.NewBalance.IsZero())
}

func TestOfferCreate_InsufficientBalance(t *testing.T) {
	f := newOfferFixture("50", decPtr("10"))

	_, err := f.uc.Create(context.Background(), provider, CreateOfferInput{
		DemandID: "d1", Price: dec("7500"), EstimatedTime: "1 day",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Contains(t, err.Error(), "75.00")
	assert.Contains(t, err.Error(), "50.00")
	assert.True(t, f.users.balance("p1").Equal(dec("50")))
	assert.Zero(t, f.offers.count())
	assert.Empty(t, f.notifier.kinds())
}

func TestOfferCreate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		actor  Actor
		input  CreateOfferInput
		setup  func(t *testing.T, f *offerFixture)
		status int
	}{
		{
			name:   "receiver cannot offer",
			actor:  receiver,
			input:  CreateOfferInput{DemandID: "d1", Price: dec("10"), EstimatedTime: "1 day"},
			status: http.StatusForbidden,
		},
		{
			name:   "negative price",
			actor:  provider,
			input:  CreateOfferInput{DemandID: "d1", Price: dec("-1"), EstimatedTime: "1 day"},
			status: http.StatusBadRequest,
		},
		{
			name:   "price with sub-cent digits",
			actor:  provider,
			input:  CreateOfferInput{DemandID: "d1", Price: dec("10.005"), EstimatedTime: "1 day"},
			status: http.StatusBadRequest,
		},
		{
			name:   "price above the storable maximum",
			actor:  provider,
			input:  CreateOfferInput{DemandID: "d1", Price: dec("1000000000.01"), EstimatedTime: "1 day"},
			status: http.StatusBadRequest,
		},
		{
			name:   "message over 1000 characters",
			actor:  provider,
			input:  CreateOfferInput{DemandID: "d1", Price: dec("10"), EstimatedTime: "1 day", Message: strings.Repeat("ü", 1001)},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing estimated time",
			actor:  provider,
			input:  CreateOfferInput{DemandID: "d1", Price: dec("10"), EstimatedTime: "  "},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown demand",
			actor:  provider,
			input:  CreateOfferInput{DemandID: "nope", Price: dec("10"), EstimatedTime: "1 day"},
			status: http.StatusNotFound,
		},
		{
			name:  "closed demand",
			actor: provider,
			input: CreateOfferInput{DemandID: "d1", Price: dec("10"), EstimatedTime: "1 day"},
			setup: func(t *testing.T, f *offerFixture) {
				require.NoError(t, f.demands.UpdateStatus(context.Background(), "d1", entity.DemandStatusClosed))
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "provider account missing",
			actor:  Actor{UserID: "ghost", UserType: entity.UserTypeProvider},
			input:  CreateOfferInput{DemandID: "d1", Price: dec("10"), EstimatedTime: "1 day"},
			status: http.StatusNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOfferFixture("100", decPtr("10"))
			if tc.setup != nil {
				tc.setup(t, f)
			}
			_, err := f.uc.Create(context.Background(), tc.actor, tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.status, statusOf(err))
			assert.Zero(t, f.offers.count())
		})
	}
}

func TestOfferCreate_Duplicate(t *testing.T) {
	f := newOfferFixture("100", decPtr("10"))
	f.create(t, provider)

	_, err := f.uc.Create(context.Background(), provider, CreateOfferInput{
		DemandID: "d1", Price: dec("100"), EstimatedTime: "1 day",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Contains(t, err.Error(), msgDuplicateOffer)
	assert.True(t, f.users.balance("p1").Equal(dec("25")), "second attempt must not be charged")
}

func TestOfferCreate_ConcurrentDuplicatesChargeOnce(t *testing.T) {
	f := newOfferFixture("1000", decPtr("10"))
	f.offers.staleReads = true

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Create(context.Background(), provider, CreateOfferInput{
				DemandID: "d1", Price: dec("7500"), EstimatedTime: "1 day",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if statusOf(err) == http.StatusBadRequest {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
	assert.Equal(t, 1, f.offers.count())
	assert.True(t, f.users.balance("p1").Equal(dec("925")))
}

func TestOfferAccept_ClosesDemandAndLeavesSiblings(t *testing.T) {
	f := newOfferFixture("100", decPtr("1"))
	first := f.create(t, provider)
	second := f.create(t, provider2)

	accepted, err := f.uc.UpdateStatus(context.Background(), receiver, first.ID, entity.OfferStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStatusAccepted, accepted.Status)
	assert.Equal(t, entity.DemandStatusClosed, f.demands.status("d1"))

	sibling, err := f.offers.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStatusPending, sibling.Status)

	// The demand is closed now, so the sibling cannot be accepted too.
	_, err = f.uc.UpdateStatus(context.Background(), receiver, second.ID, entity.OfferStatusAccepted)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	assert.Contains(t, f.notifier.kinds(), entity.NotificationOfferAccepted)
}

func TestOfferUpdateStatus_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("only the demand owner", func(t *testing.T) {
		f := newOfferFixture("100", nil)
		o := f.create(t, provider)
		_, err := f.uc.UpdateStatus(ctx, provider, o.ID, entity.OfferStatusAccepted)
		assert.Equal(t, http.StatusForbidden, statusOf(err))
	})

	t.Run("invalid target status", func(t *testing.T) {
		f := newOfferFixture("100", nil)
		o := f.create(t, provider)
		_, err := f.uc.UpdateStatus(ctx, receiver, o.ID, entity.OfferStatusCompleted)
		assert.Equal(t, http.StatusBadRequest, statusOf(err))
	})

	t.Run("rejected offers stay rejected", func(t *testing.T) {
		f := newOfferFixture("100", nil)
		o := f.create(t, provider)
		rejected, err := f.uc.UpdateStatus(ctx, receiver, o.ID, entity.OfferStatusRejected)
		require.NoError(t, err)
		assert.Equal(t, entity.OfferStatusRejected, rejected.Status)
		assert.Equal(t, entity.DemandStatusActive, f.demands.status("d1"))

		_, err = f.uc.UpdateStatus(ctx, receiver, o.ID, entity.OfferStatusAccepted)
		assert.Equal(t, http.StatusBadRequest, statusOf(err))
	})

	t.Run("unknown offer", func(t *testing.T) {
		f := newOfferFixture("100", nil)
		_, err := f.uc.UpdateStatus(ctx, receiver, "missing", entity.OfferStatusAccepted)
		assert.Equal(t, http.StatusNotFound, statusOf(err))
	})
}

func TestOfferComplete(t *testing.T) {
	ctx := context.Background()
	f := newOfferFixture("100", nil)
	o := f.create(t, provider)

	_, err := f.uc.Complete(ctx, provider, o.ID)
	assert.Equal(t, http.StatusBadRequest, statusOf(err), "pending offers cannot be completed")

	_, err = f.uc.UpdateStatus(ctx, receiver, o.ID, entity.OfferStatusAccepted)
	require.NoError(t, err)

	_, err = f.uc.Complete(ctx, provider2, o.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	done, err := f.uc.Complete(ctx, provider, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStatusCompleted, done.Status)
	assert.True(t, done.ProviderCompleted)
	assert.Equal(t, entity.DemandStatusClosed, f.demands.status("d1"))

	_, err = f.uc.Complete(ctx, provider, o.ID)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	completed := 0
	for _, kind := range f.notifier.kinds() {
		if kind == entity.NotificationOfferCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed, "the rejected repeat must not notify again")
}

func TestOfferListForDemand(t *testing.T) {
	ctx := context.Background()
	f := newOfferFixture("100", nil)
	mine := f.create(t, provider)
	f.create(t, provider2)

	all, err := f.uc.ListForDemand(ctx, receiver, "d1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.uc.ListForDemand(ctx, provider, "d1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)

	_, err = f.uc.ListForDemand(ctx, Actor{UserID: "r2", UserType: entity.UserTypeReceiver}, "d1")
	assert.Equal(t, http.StatusForbidden, statusOf(err))
}

func TestOfferGet_Access(t *testing.T) {
	ctx := context.Background()
	f := newOfferFixture("100", nil)
	o := f.create(t, provider)

	for _, actor := range []Actor{provider, receiver, {UserID: "admin", IsAdmin: true}} {
		got, err := f.uc.Get(ctx, actor, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)
	}
	_, err := f.uc.Get(ctx, provider2, o.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))
}

func TestOfferAdminUpdateKeepsCommission(t *testing.T) {
	ctx := context.Background()
	f := newOfferFixture("100", decPtr("10"))
	o := f.create(t, provider)

	price := dec("100")
	updated, err := f.uc.AdminUpdate(ctx, o.ID, AdminUpdateOfferInput{Price: &price, Message: strPtr("edited")})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "edited", updated.Message)
	assert.True(t, updated.CommissionAmount.Equal(dec("75")))
	assert.True(t, f.users.balance("p1").Equal(dec("25")))

	blank := " "
	_, err = f.uc.AdminUpdate(ctx, o.ID, AdminUpdateOfferInput{EstimatedTime: &blank})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	require.NoError(t, f.uc.AdminDelete(ctx, o.ID))
	assert.Zero(t, f.offers.count())
}
