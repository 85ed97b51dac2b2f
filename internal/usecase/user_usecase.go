package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

// CategoryTopic is the push topic providers subscribed to a category listen on.
func CategoryTopic(categoryID string) string {
	return "category_" + categoryID
}

func categoryTopics(ids []string) []string {
	topics := make([]string, 0, len(ids))
	for _, id := range ids {
		topics = append(topics, CategoryTopic(id))
	}
	return topics
}

type UserUseCase struct {
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	hasher       PasswordHasher
	push         PushSender
}

func NewUserUseCase(
	userRepo repository.UserRepository,
	categoryRepo repository.CategoryRepository,
	hasher PasswordHasher,
	push PushSender,
) *UserUseCase {
	return &UserUseCase{
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		hasher:       hasher,
		push:         push,
	}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsProvider() {
		if user.CategoryIDs, err = uc.userRepo.GetCategoryIDs(ctx, userID); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (uc *UserUseCase) GetPublicProfile(ctx context.Context, userID string) (*entity.PublicProfile, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Public()
	return &profile, nil
}

// UpdateProfileInput is a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	Name        *string
	Email       entity.Nullable[string]
	FCMToken    *string
	CategoryIDs *[]string
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var newCategories []string
	if input.CategoryIDs != nil {
		if !user.IsProvider() {
			return nil, errors.BadRequest("Only providers can subscribe to categories", nil)
		}
		if newCategories, err = uc.validateCategoryIDs(ctx, *input.CategoryIDs); err != nil {
			return nil, err
		}
	}

	oldToken := user.FCMToken
	oldCategories := user.CategoryIDs

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email.Set {
		user.Email = input.Email.Value
	}
	if input.FCMToken != nil {
		user.FCMToken = *input.FCMToken
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if input.CategoryIDs != nil {
		if err := uc.userRepo.ReplaceCategories(ctx, userID, newCategories); err != nil {
			return nil, err
		}
		user.CategoryIDs = newCategories
	}

	if user.IsProvider() && (oldToken != user.FCMToken || input.CategoryIDs != nil) {
		uc.syncTopics(ctx, oldToken, oldCategories, user.FCMToken, user.CategoryIDs)
	}

	return user, nil
}

// validateCategoryIDs de-duplicates ids and checks each names an active category.
func (uc *UserUseCase) validateCategoryIDs(ctx context.Context, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, errors.BadRequest("Invalid category id: "+id, nil)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return unique, nil
	}

	found, err := uc.categoryRepo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(found))
	for _, c := range found {
		active[c.ID] = c.IsActive
	}
	for _, id := range unique {
		if !active[id] {
			return nil, errors.BadRequest("Category does not exist or is inactive: "+id, nil)
		}
	}
	sort.Strings(unique)
	return unique, nil
}

func (uc *UserUseCase) syncTopics(ctx context.Context, oldToken string, oldIDs []string, newToken string, newIDs []string) {
	if uc.push == nil {
		return
	}
	if oldToken != "" && len(oldIDs) > 0 {
		if err := uc.push.UnsubscribeFromTopics(ctx, oldToken, categoryTopics(oldIDs)); err != nil {
			logger.Warn("failed to unsubscribe device from category topics: %v", err)
		}
	}
	if newToken != "" && len(newIDs) > 0 {
		if err := uc.push.SubscribeToTopics(ctx, newToken, categoryTopics(newIDs)); err != nil {
			logger.Warn("failed to subscribe device to category topics: %v", err)
		}
	}
}

type ListUsersInput struct {
	UserType *entity.UserType
	IsActive *bool
	Page     int
	Limit    int
}

func (uc *UserUseCase) ListUsers(ctx context.Context, input ListUsersInput) ([]*entity.User, int64, error) {
	filter := repository.UserFilter{UserType: input.UserType, IsActive: input.IsActive}
	return uc.userRepo.List(ctx, filter, input.Limit, offset(input.Page, input.Limit))
}

type AdminCreateUserInput struct {
	PhoneNumber    string
	Name           string
	Email          *string
	UserType       entity.UserType
	IsAdmin        bool
	Password       string
	InitialBalance decimal.Decimal
}

func (uc *UserUseCase) CreateUser(ctx context.Context, input AdminCreateUserInput) (*entity.User, error) {
	if !input.UserType.Valid() {
		return nil, errors.BadRequest("userType must be PROVIDER or RECEIVER", nil)
	}
	if input.InitialBalance.IsNegative() {
		return nil, errors.BadRequest("Initial balance cannot be negative", nil)
	}
	if !service.ValidAmount(input.InitialBalance) {
		return nil, errors.BadRequest(fmt.Sprintf("Initial balance must have at most two decimals and not exceed %s", service.MaxAmount.StringFixed(2)), nil)
	}
	if input.IsAdmin && len(input.Password) < 8 {
		return nil, errors.BadRequest("Admin accounts need a password of at least 8 characters", nil)
	}

	user := &entity.User{
		ID:          uuid.NewString(),
		PhoneNumber: input.PhoneNumber,
		Name:        strings.TrimSpace(input.Name),
		Email:       input.Email,
		UserType:    input.UserType,
		IsAdmin:     input.IsAdmin,
		IsActive:    true,
		Balance:     input.InitialBalance,
	}
	if input.Password != "" {
		hash, err := uc.hasher.Hash(input.Password)
		if err != nil {
			return nil, errors.Internal("Failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicatePhone) {
			return nil, errors.BadRequest("Phone number is already registered", err)
		}
		return nil, err
	}
	return user, nil
}

// CreditBalance tops up a provider's balance. Commissions are only ever
// debited by offer creation, so this is the one way money enters an account.
func (uc *UserUseCase) CreditBalance(ctx context.Context, userID string, amount decimal.Decimal) (*entity.User, error) {
	if !amount.IsPositive() {
		return nil, errors.BadRequest("Amount must be positive", nil)
	}
	if !service.ValidAmount(amount) {
		return nil, errors.BadRequest(fmt.Sprintf("Amount must have at most two decimals and not exceed %s", service.MaxAmount.StringFixed(2)), nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.UserType != entity.UserTypeProvider {
		return nil, errors.BadRequest("Only provider balances can be credited", nil)
	}

	balance, err := uc.userRepo.AddBalance(ctx, userID, amount, service.MaxAmount)
	if err != nil {
		if stderrors.Is(err, repository.ErrBalanceLimit) {
			return nil, errors.BadRequest(fmt.Sprintf("Balance cannot exceed %s", service.MaxAmount.StringFixed(2)), err)
		}
		return nil, err
	}
	logger.Info("Credited %s to user %s, balance now %s", amount.StringFixed(2), userID, balance.StringFixed(2))

	user.Balance = balance
	return user, nil
}

type AdminUpdateUserInput struct {
	Name     *string
	IsActive *bool
	IsAdmin  *bool
	Password *string
}

func (uc *UserUseCase) UpdateUser(ctx context.Context, actorID, userID string, input AdminUpdateUserInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if actorID == userID && ((input.IsActive != nil && !*input.IsActive) || (input.IsAdmin != nil && !*input.IsAdmin)) {
		return nil, errors.BadRequest("You cannot disable or demote your own account", nil)
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, errors.BadRequest("Password must be at least 8 characters", nil)
		}
		hash, err := uc.hasher.Hash(*input.Password)
		if err != nil {
			return nil, errors.Internal("Failed to hash password", err)
		}
		user.PasswordHash = hash
	}
	if user.IsAdmin && user.PasswordHash == "" {
		return nil, errors.BadRequest("Set a password before granting admin access", nil)
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
