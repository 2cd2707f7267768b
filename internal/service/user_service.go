package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/repository"
)

// UserService exposes admin user management.
type UserService interface {
	List(ctx context.Context, actor *model.User, filter repository.UserFilter, page repository.Pagination) (*Page[model.User], error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error)
	SetActive(ctx context.Context, actor *model.User, id uuid.UUID, active bool) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService with repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) List(ctx context.Context, actor *model.User, filter repository.UserFilter, page repository.Pagination) (*Page[model.User], error) {
	if err := policy.Authorize(actor, policy.UserManage, policy.Admin("user")); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperrors.Validation("unknown role %q", filter.Role)
	}
	users, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return newPage(users, total, page), nil
}

func (s *userService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error) {
	if err := policy.Authorize(actor, policy.UserManage, policy.Admin("user")); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// SetActive enables or disables an account. Disabled users fail authentication
// on their next request.
func (s *userService) SetActive(ctx context.Context, actor *model.User, id uuid.UUID, active bool) (*model.User, error) {
	if err := policy.Authorize(actor, policy.UserManage, policy.Admin("user")); err != nil {
		return nil, err
	}
	if id == actor.ID && !active {
		return nil, apperrors.Validation("admins cannot deactivate themselves")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if user.IsActive == active {
		return user, nil
	}
	user.IsActive = active
	if err := s.repo.Update(ctx, user, "is_active"); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Shopkeeper is the public storefront view of an employer.
type Shopkeeper struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ShopName     string    `json:"shopName"`
	ShopAddress  string    `json:"shopAddress,omitempty"`
	BusinessType string    `json:"businessType,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Verified     bool      `json:"verified"`
}

// ShopkeeperDetail is a shopkeeper with their open jobs.
type ShopkeeperDetail struct {
	Shopkeeper
	Jobs []model.Job `json:"jobs"`
}

func toShopkeeper(u *model.User) Shopkeeper {
	d := u.Employer()
	return Shopkeeper{
		ID:           u.ID,
		Name:         u.Name,
		ShopName:     u.ShopLabel(),
		ShopAddress:  d.ShopAddress,
		BusinessType: d.BusinessType,
		Phone:        u.Phone,
		Verified:     d.Verified,
	}
}

// ShopkeeperService exposes employers as public storefronts.
type ShopkeeperService interface {
	List(ctx context.Context, search string, page repository.Pagination) (*Page[Shopkeeper], error)
	Get(ctx context.Context, id uuid.UUID) (*ShopkeeperDetail, error)
	Verify(ctx context.Context, actor *model.User, id uuid.UUID, verified bool) (*Shopkeeper, error)
}

type shopkeeperService struct {
	store repository.Store
}

// NewShopkeeperService creates a new shopkeeper service.
func NewShopkeeperService(store repository.Store) ShopkeeperService {
	return &shopkeeperService{store: store}
}

// List returns active employers.
func (s *shopkeeperService) List(ctx context.Context, search string, page repository.Pagination) (*Page[Shopkeeper], error) {
	users, total, err := s.store.Users().List(ctx, repository.UserFilter{
		Role:       model.RoleEmployer,
		Search:     search,
		ActiveOnly: true,
	}, page)
	if err != nil {
		return nil, fmt.Errorf("list shopkeepers: %w", err)
	}
	items := make([]Shopkeeper, 0, len(users))
	for i := range users {
		items = append(items, toShopkeeper(&users[i]))
	}
	return newPage(items, total, page), nil
}

// Get returns a shopkeeper and their active jobs.
func (s *shopkeeperService) Get(ctx context.Context, id uuid.UUID) (*ShopkeeperDetail, error) {
	user, err := s.findEmployer(ctx, s.store.Users().FindByID, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: shopkeeper", apperrors.ErrNotFound)
	}
	jobs, _, err := s.store.Jobs().List(ctx, repository.JobFilter{PostedBy: &user.ID}, repository.NewPagination(1, 100))
	if err != nil {
		return nil, fmt.Errorf("list shopkeeper jobs: %w", err)
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	return &ShopkeeperDetail{Shopkeeper: toShopkeeper(user), Jobs: jobs}, nil
}

// Verify sets the verified badge on an employer.
func (s *shopkeeperService) Verify(ctx context.Context, actor *model.User, id uuid.UUID, verified bool) (*Shopkeeper, error) {
	if err := policy.Authorize(actor, policy.UserManage, policy.Admin("shopkeeper")); err != nil {
		return nil, err
	}
	var user *model.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if user, err = s.findEmployer(ctx, tx.Users().FindByIDForUpdate, id); err != nil {
			return err
		}
		d := user.Employer()
		d.Verified = verified
		user.SetEmployer(d)
		if err := tx.Users().Update(ctx, user, "employer_details"); err != nil {
			return fmt.Errorf("verify shopkeeper: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sk := toShopkeeper(user)
	return &sk, nil
}

func (s *shopkeeperService) findEmployer(ctx context.Context, find func(context.Context, uuid.UUID) (*model.User, error), id uuid.UUID) (*model.User, error) {
	user, err := find(ctx, id)
	if err != nil {
		return nil, notFound(err, "shopkeeper")
	}
	if user.Role != model.RoleEmployer {
		return nil, fmt.Errorf("%w: shopkeeper", apperrors.ErrNotFound)
	}
	return user, nil
}
