package usecase

import (
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
)

// In-memory stand-ins for the Postgres repositories. They copy on the way
// in and out so callers cannot mutate stored rows by accident.

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[string]*entity.User
	categories map[string][]string
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*entity.User{}, categories: map[string][]string{}}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.PhoneNumber == u.PhoneNumber {
			return repository.ErrDuplicatePhone
		}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	balance, rating, count := stored.Balance, stored.Rating, stored.RatingCount
	cp := *u
	cp.Balance, cp.Rating, cp.RatingCount = balance, rating, count
	cp.CategoryIDs = nil
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, f repository.UserFilter, limit, offset int) ([]*entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*entity.User
	for _, u := range r.users {
		if f.UserType != nil && u.UserType != *f.UserType {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, limit, offset), int64(len(all)), nil
}

func (r *fakeUserRepo) AddBalance(_ context.Context, id string, amount, limit decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return decimal.Zero, errors.NotFound("User", nil)
	}
	next := u.Balance.Add(amount)
	if next.GreaterThan(limit) {
		return decimal.Zero, repository.ErrBalanceLimit
	}
	u.Balance = next
	return next, nil
}

func (r *fakeUserRepo) GetCategoryIDs(_ context.Context, id string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.categories[id]...), nil
}

func (r *fakeUserRepo) ReplaceCategories(_ context.Context, id string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[id] = append([]string(nil), ids...)
	return nil
}

func (r *fakeUserRepo) balance(id string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].Balance
}

type fakeCategoryRepo struct {
	categories map[string]*entity.Category
	refs       map[string]entity.CategoryReferences
}

func newFakeCategoryRepo(cs ...*entity.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: map[string]*entity.Category{}, refs: map[string]entity.CategoryReferences{}}
	for _, c := range cs {
		cp := *c
		r.categories[c.ID] = &cp
	}
	return r
}

func (r *fakeCategoryRepo) Create(_ context.Context, c *entity.Category) error {
	for _, existing := range r.categories {
		if existing.Name == c.Name {
			return repository.ErrDuplicateCategory
		}
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, errors.NotFound("Category", nil)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Category, error) {
	var out []*entity.Category
	for _, id := range ids {
		if c, ok := r.categories[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) List(_ context.Context, f repository.CategoryFilter) ([]*entity.Category, error) {
	out := []*entity.Category{}
	for _, c := range r.categories {
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if f.RootOnly && c.ParentID != nil {
			continue
		}
		if f.ParentID != nil && (c.ParentID == nil || *c.ParentID != *f.ParentID) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) ListChildIDs(_ context.Context, parentID string) ([]string, error) {
	var ids []string
	for _, c := range r.categories {
		if c.ParentID != nil && *c.ParentID == parentID {
			ids = append(ids, c.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, c *entity.Category) error {
	if _, ok := r.categories[c.ID]; !ok {
		return errors.NotFound("Category", nil)
	}
	for _, existing := range r.categories {
		if existing.ID != c.ID && existing.Name == c.Name {
			return repository.ErrDuplicateCategory
		}
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.categories[id]; !ok {
		return errors.NotFound("Category", nil)
	}
	delete(r.categories, id)
	return nil
}

func (r *fakeCategoryRepo) CountReferences(_ context.Context, id string) (entity.CategoryReferences, error) {
	return r.refs[id], nil
}

type fakeDemandRepo struct {
	mu      sync.Mutex
	demands map[string]*entity.Demand
	seq     int64
}

func newFakeDemandRepo(ds ...*entity.Demand) *fakeDemandRepo {
	r := &fakeDemandRepo{demands: map[string]*entity.Demand{}, seq: 1000000}
	for _, d := range ds {
		cp := *d
		r.demands[d.ID] = &cp
	}
	return r
}

func (r *fakeDemandRepo) Create(_ context.Context, d *entity.Demand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.DemandNumber = r.seq
	r.seq++
	d.CreatedAt = time.Now()
	cp := *d
	r.demands[d.ID] = &cp
	return nil
}

func (r *fakeDemandRepo) GetByID(_ context.Context, id string) (*entity.Demand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.demands[id]
	if !ok {
		return nil, errors.NotFound("Demand", nil)
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDemandRepo) List(_ context.Context, f repository.DemandFilter, limit, offset int) ([]*entity.Demand, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var allowed map[string]bool
	if f.CategoryIDs != nil {
		allowed = map[string]bool{}
		for _, id := range f.CategoryIDs {
			allowed[id] = true
		}
	}
	var out []*entity.Demand
	for _, d := range r.demands {
		if f.OwnerID != "" && d.UserID != f.OwnerID {
			continue
		}
		if f.CategoryID != "" && d.CategoryID != f.CategoryID {
			continue
		}
		if allowed != nil && !allowed[d.CategoryID] {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.IsApproved != nil && d.IsApproved != *f.IsApproved {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageOf(out, limit, offset), int64(len(out)), nil
}

func (r *fakeDemandRepo) UpdateStatus(_ context.Context, id string, s entity.DemandStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.demands[id]
	if !ok {
		return errors.NotFound("Demand", nil)
	}
	d.Status = s
	return nil
}

func (r *fakeDemandRepo) SetApproval(_ context.Context, id string, approved bool, s entity.DemandStatus) (*entity.Demand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.demands[id]
	if !ok {
		return nil, errors.NotFound("Demand", nil)
	}
	d.IsApproved = approved
	if s != "" {
		d.Status = s
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDemandRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.demands[id]; !ok {
		return errors.NotFound("Demand", nil)
	}
	delete(r.demands, id)
	return nil
}

func (r *fakeDemandRepo) status(id string) entity.DemandStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.demands[id].Status
}

// fakeOfferRepo enforces (demand, provider) uniqueness inside
// CreateWithCommission, the way the table constraint does. staleReads makes
// the pre-check miss existing rows, as under a race.
type fakeOfferRepo struct {
	mu         sync.Mutex
	offers     map[string]*entity.Offer
	users      *fakeUserRepo
	demands    *fakeDemandRepo
	staleReads bool
}

func newFakeOfferRepo(users *fakeUserRepo, demands *fakeDemandRepo, offers ...*entity.Offer) *fakeOfferRepo {
	r := &fakeOfferRepo{offers: map[string]*entity.Offer{}, users: users, demands: demands}
	for _, o := range offers {
		cp := *o
		r.offers[o.ID] = &cp
	}
	return r
}

func (r *fakeOfferRepo) GetByID(_ context.Context, id string) (*entity.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, errors.NotFound("Offer", nil)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) GetByDemandAndProvider(_ context.Context, demandID, providerID string) (*entity.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staleReads {
		return nil, nil
	}
	for _, o := range r.offers {
		if o.DemandID == demandID && o.ProviderID == providerID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeOfferRepo) ListByDemand(_ context.Context, demandID string) ([]*entity.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Offer{}
	for _, o := range r.offers {
		if o.DemandID == demandID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOfferRepo) ListByProvider(_ context.Context, providerID string, limit, offset int) ([]*entity.Offer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Offer
	for _, o := range r.offers {
		if o.ProviderID == providerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageOf(out, limit, offset), int64(len(out)), nil
}

func (r *fakeOfferRepo) CreateWithCommission(_ context.Context, o *entity.Offer, commission decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	provider, ok := r.users.users[o.ProviderID]
	if !ok {
		return decimal.Zero, errors.NotFound("Provider", nil)
	}
	if provider.Balance.LessThan(commission) {
		return decimal.Zero, repository.ErrInsufficientBalance
	}
	for _, existing := range r.offers {
		if existing.DemandID == o.DemandID && existing.ProviderID == o.ProviderID {
			return decimal.Zero, repository.ErrDuplicateOffer
		}
	}

	provider.Balance = provider.Balance.Sub(commission)
	o.CommissionAmount = commission
	cp := *o
	r.offers[o.ID] = &cp
	return provider.Balance, nil
}

func (r *fakeOfferRepo) Accept(_ context.Context, offerID, demandID string) (*entity.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.demands.mu.Lock()
	defer r.demands.mu.Unlock()

	o, ok := r.offers[offerID]
	d, dok := r.demands.demands[demandID]
	if !ok || !dok || o.Status != entity.OfferStatusPending || d.Status != entity.DemandStatusActive {
		return nil, repository.ErrStateChanged
	}
	o.Status = entity.OfferStatusAccepted
	d.Status = entity.DemandStatusClosed
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) TransitionStatus(_ context.Context, offerID string, from, to entity.OfferStatus) (*entity.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[offerID]
	if !ok || o.Status != from {
		return nil, repository.ErrStateChanged
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) MarkCompleted(_ context.Context, offerID string) (*entity.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[offerID]
	if !ok || o.Status != entity.OfferStatusAccepted || o.ProviderCompleted {
		return nil, repository.ErrStateChanged
	}
	o.Status = entity.OfferStatusCompleted
	o.ProviderCompleted = true
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) Update(_ context.Context, o *entity.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[o.ID]; !ok {
		return errors.NotFound("Offer", nil)
	}
	cp := *o
	r.offers[o.ID] = &cp
	return nil
}

func (r *fakeOfferRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[id]; !ok {
		return errors.NotFound("Offer", nil)
	}
	delete(r.offers, id)
	return nil
}

func (r *fakeOfferRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.offers)
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]*entity.Review
	users   *fakeUserRepo
}

// newFakeReviewRepo refreshes ratings on users, the way the Postgres
// repository does inside its write transaction.
func newFakeReviewRepo(users *fakeUserRepo) *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[string]*entity.Review{}, users: users}
}

// refreshRating must be called with r.mu held.
func (r *fakeReviewRepo) refreshRating(userID string) error {
	var sum, n int
	for _, rv := range r.reviews {
		if rv.ReviewedUserID == userID {
			sum += rv.Rating
			n++
		}
	}
	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	u, ok := r.users.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.Rating, u.RatingCount = 0, n
	if n > 0 {
		u.Rating = float64(sum) / float64(n)
	}
	return nil
}

func (r *fakeReviewRepo) Create(_ context.Context, rv *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.ReviewerID != rv.ReviewerID {
			continue
		}
		if rv.OfferID != nil && existing.OfferID != nil && *existing.OfferID == *rv.OfferID {
			return repository.ErrDuplicateReview
		}
		if rv.OfferID == nil && existing.OfferID == nil && existing.ReviewedUserID == rv.ReviewedUserID {
			return repository.ErrDuplicateReview
		}
	}
	cp := *rv
	r.reviews[rv.ID] = &cp
	if err := r.refreshRating(rv.ReviewedUserID); err != nil {
		delete(r.reviews, rv.ID)
		return err
	}
	return nil
}

func (r *fakeReviewRepo) GetByID(_ context.Context, id string) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, errors.NotFound("Review", nil)
	}
	cp := *rv
	return &cp, nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return errors.NotFound("Review", nil)
	}
	delete(r.reviews, id)
	return r.refreshRating(rv.ReviewedUserID)
}

func (r *fakeReviewRepo) ExistsForPair(_ context.Context, reviewerID, reviewedID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ReviewerID == reviewerID && rv.ReviewedUserID == reviewedID && rv.OfferID == nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReviewRepo) ExistsForOffer(_ context.Context, reviewerID, offerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ReviewerID == reviewerID && rv.OfferID != nil && *rv.OfferID == offerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReviewRepo) ListByReviewedUser(_ context.Context, userID string, limit, offset int) ([]*entity.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Review
	for _, rv := range r.reviews {
		if rv.ReviewedUserID == userID {
			cp := *rv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageOf(out, limit, offset), int64(len(out)), nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items []*entity.Notification
	err   error
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id string) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Notification", nil)
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			cp := *n
			out = append(out, &cp)
		}
	}
	return pageOf(out, limit, offset), int64(len(out)), nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return errors.NotFound("Notification", nil)
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

type fakeCharityRepo struct {
	charities map[string]*entity.Charity
}

func newFakeCharityRepo(cs ...*entity.Charity) *fakeCharityRepo {
	r := &fakeCharityRepo{charities: map[string]*entity.Charity{}}
	for _, c := range cs {
		cp := *c
		r.charities[c.ID] = &cp
	}
	return r
}

func (r *fakeCharityRepo) Create(_ context.Context, c *entity.Charity) error {
	cp := *c
	r.charities[c.ID] = &cp
	return nil
}

func (r *fakeCharityRepo) GetByID(_ context.Context, id string) (*entity.Charity, error) {
	c, ok := r.charities[id]
	if !ok {
		return nil, errors.NotFound("Charity", nil)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCharityRepo) List(_ context.Context, f repository.CharityFilter) ([]*entity.Charity, error) {
	out := []*entity.Charity{}
	for _, c := range r.charities {
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if f.City != "" && c.City != f.City {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCharityRepo) Update(_ context.Context, c *entity.Charity) error {
	if _, ok := r.charities[c.ID]; !ok {
		return errors.NotFound("Charity", nil)
	}
	cp := *c
	r.charities[c.ID] = &cp
	return nil
}

func (r *fakeCharityRepo) Delete(_ context.Context, id string) error {
	delete(r.charities, id)
	return nil
}

type fakeOTPStore struct {
	mu      sync.Mutex
	entries map[string]entity.OTPEntry
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{entries: map[string]entity.OTPEntry{}}
}

func (s *fakeOTPStore) Set(_ context.Context, phone string, e *entity.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = *e
	return nil
}

func (s *fakeOTPStore) Get(_ context.Context, phone string) (*entity.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[phone]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *fakeOTPStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}

func (s *fakeOTPStore) Modify(_ context.Context, phone string, fn func(*entity.OTPEntry) *entity.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current *entity.OTPEntry
	if e, ok := s.entries[phone]; ok {
		current = &e
	}
	if next := fn(current); next != nil {
		s.entries[phone] = *next
	} else {
		delete(s.entries, phone)
	}
	return nil
}

func (s *fakeOTPStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Collaborator fakes.

type sentNotification struct {
	UserID string
	Kind   entity.NotificationType
	Data   map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, kind entity.NotificationType, _, _ string, data map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Data: data})
}

func (n *recordingNotifier) kinds() []entity.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]entity.NotificationType, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}

type recordingPush struct {
	mu           sync.Mutex
	tokens       []string
	multicast    [][]string
	topics       []string
	subscribed   map[string][]string
	unsubscribed map[string][]string
	err          error
}

func newRecordingPush() *recordingPush {
	return &recordingPush{subscribed: map[string][]string{}, unsubscribed: map[string][]string{}}
}

func (p *recordingPush) SendToToken(_ context.Context, token, _, _ string, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.tokens = append(p.tokens, token)
	return nil
}

func (p *recordingPush) SendToTokens(_ context.Context, tokens []string, _, _ string, _ map[string]string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.multicast = append(p.multicast, tokens)
	return len(tokens), nil
}

func (p *recordingPush) SendToTopic(_ context.Context, topic, _, _ string, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPush) SubscribeToTopics(_ context.Context, token string, topics []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribed[token] = append(p.subscribed[token], topics...)
	return nil
}

func (p *recordingPush) UnsubscribeFromTopics(_ context.Context, token string, topics []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unsubscribed[token] = append(p.unsubscribed[token], topics...)
	return nil
}

type recordingRealtime struct {
	events map[string]int
}

func (r *recordingRealtime) Publish(userID, _ string, _ interface{}) error {
	if r.events == nil {
		r.events = map[string]int{}
	}
	r.events[userID]++
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(u *entity.User) (string, error) { return "token-" + u.ID, nil }

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Compare(hash, p string) bool   { return hash == "hashed:"+p }

type fakeUploader struct {
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) UploadFile(_ context.Context, _ io.Reader, fileType, folder string) (string, error) {
	url := "https://storage.googleapis.com/bucket/public/" + folder + "/" + strconv.Itoa(len(u.uploaded)+1)
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *fakeUploader) DeleteFile(_ context.Context, url string) error {
	u.deleted = append(u.deleted, url)
	return nil
}

func pageOf[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func statusOf(err error) int { return errors.StatusOf(err) }
