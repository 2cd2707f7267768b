package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobportal/internal/auth"
	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/repository"
)

// RegisterInput holds the fields accepted at sign-up.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
	Phone    string
	Student  *model.StudentDetails
	Employer *model.EmployerDetails
}

// ProfileInput holds the self-editable profile fields. Nil fields are left unchanged.
type ProfileInput struct {
	Name     *string
	Phone    *string
	Student  *model.StudentDetails
	Employer *model.EmployerDetails
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, actor *model.User) (*model.User, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	ChangePassword(ctx context.Context, actor *model.User, current, next string) error
	UpdateProfile(ctx context.Context, actor *model.User, in ProfileInput) (*model.User, error)
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	hasher     *auth.Hasher
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, hasher *auth.Hasher) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		hasher:     hasher,
	}
}

// Register creates a student or employer account and signs them in.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.Validation("email, password and name are required")
	}
	// admin accounts come from the seed command only
	if in.Role != model.RoleStudent && in.Role != model.RoleEmployer {
		return nil, apperrors.Validation("userType must be student or employer")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email %s", apperrors.ErrConflict, email)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Role:         in.Role,
		IsActive:     true,
	}
	switch in.Role {
	case model.RoleStudent:
		d := model.StudentDetails{}
		if in.Student != nil {
			d = *in.Student
		}
		d.Certificates = nil // only certificate uploads write the mirror
		user.SetStudent(d)
	case model.RoleEmployer:
		d := model.EmployerDetails{}
		if in.Employer != nil {
			d = *in.Employer
		}
		d.Verified = false
		user.SetEmployer(d)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email %s", apperrors.ErrConflict, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

// Login authenticates a user by email and password.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) || !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Role == model.RoleAdmin {
		d := user.Admin()
		now := time.Now()
		d.LastLogin = &now
		user.SetAdmin(d)
		if err := s.users.Update(ctx, user, "admin_details"); err != nil {
			return nil, fmt.Errorf("stamp last login: %w", err)
		}
	}

	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, _, err := s.jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Me reloads the actor so profile edits made elsewhere are visible.
func (s *authService) Me(ctx context.Context, actor *model.User) (*model.User, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.ErrUnauthorized
	}
	ttl := claims.RemainingTTL(time.Now())
	if ttl <= 0 {
		return nil
	}
	return s.tokenStore.RevokeToken(ctx, claims.ID, ttl)
}

// ChangePassword replaces the actor's password after checking the current one.
func (s *authService) ChangePassword(ctx context.Context, actor *model.User, current, next string) error {
	if next == "" {
		return apperrors.Validation("new password is required")
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return notFound(err, "user")
	}
	if !s.hasher.Compare(user.PasswordHash, current) {
		return apperrors.ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user, "password_hash")
}

// UpdateProfile edits the actor's own profile. Role specific details are
// accepted only for the actor's role. Jobs keep the shop name they were posted with.
// The row is locked while the role details are merged so a concurrent
// certificate review or shop verification is not overwritten.
func (s *authService) UpdateProfile(ctx context.Context, actor *model.User, in ProfileInput) (*model.User, error) {
	var name *string
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		name = &n
	}

	var user *model.User
	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		var err error
		user, err = repo.FindByIDForUpdate(ctx, actor.ID)
		if err != nil {
			return notFound(err, "user")
		}

		var columns []string
		if name != nil {
			user.Name = *name
			columns = append(columns, "name")
		}
		if in.Phone != nil {
			user.Phone = strings.TrimSpace(*in.Phone)
			columns = append(columns, "phone")
		}
		if in.Student != nil {
			if user.Role != model.RoleStudent {
				return apperrors.Validation("studentDetails only apply to students")
			}
			d := *in.Student
			d.Certificates = user.Student().Certificates
			user.SetStudent(d)
			columns = append(columns, "student_details")
		}
		if in.Employer != nil {
			if user.Role != model.RoleEmployer {
				return apperrors.Validation("employerDetails only apply to employers")
			}
			d := *in.Employer
			d.Verified = user.Employer().Verified
			user.SetEmployer(d)
			columns = append(columns, "employer_details")
		}
		if len(columns) == 0 {
			return nil
		}
		if err := repo.Update(ctx, user, columns...); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
