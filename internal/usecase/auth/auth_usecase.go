package auth

import (
	"context"
	"strings"
	"time"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"
	"medvault-api/internal/domain/repository"
	"medvault-api/pkg/jwt"
	"medvault-api/pkg/password"
)

type AuthUsecase struct {
	userRepo  repository.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

// register user
func (uc *AuthUsecase) Register(
	ctx context.Context,
	email, pass, fullName string,
	role entity.UserRole,
) (*entity.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || pass == "" || fullName == "" {
		return nil, apperror.Validation("email, password and full name are required")
	}
	if !role.Valid() {
		return nil, apperror.Validation("role must be doctor, admin or staff")
	}

	existing, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Validation("email already registered")
	}

	hashedPassword, err := password.HashPassword(pass)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:          email,
		HashedPassword: hashedPassword,
		FullName:       fullName,
		Role:           role,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// login user
func (uc *AuthUsecase) Login(ctx context.Context, email, pass string) (string, *entity.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || pass == "" {
		return "", nil, apperror.Validation("email and password are required")
	}

	user, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apperror.Validation("invalid credentials")
	}

	if err := password.ComparePassword(user.HashedPassword, pass); err != nil {
		return "", nil, apperror.Validation("invalid credentials")
	}

	token, err := jwt.GenerateToken(user.ID, user.Email, string(user.Role), uc.jwtSecret, uc.jwtExpiry)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (uc *AuthUsecase) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	return user, nil
}

// UpdateProfile changes the caller's own email, full name or password.
// Email uniqueness is checked against other accounts.
func (uc *AuthUsecase) UpdateProfile(ctx context.Context, userID, email, fullName, pass string) (*entity.User, error) {
	user, err := uc.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" && fullName == "" && pass == "" {
		return nil, apperror.Validation("no data provided for update")
	}

	if email != "" && email != user.Email {
		existing, err := uc.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.Validation("email already in use")
		}
		user.Email = email
	}
	if fullName != "" {
		user.FullName = fullName
	}
	if pass != "" {
		hashed, err := password.HashPassword(pass)
		if err != nil {
			return nil, err
		}
		user.HashedPassword = hashed
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *AuthUsecase) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := uc.GetByID(ctx, userID); err != nil {
		return err
	}
	return uc.userRepo.Delete(ctx, userID)
}

// ListUsers is admin-only; the handler enforces the role.
func (uc *AuthUsecase) ListUsers(ctx context.Context) ([]entity.User, error) {
	return uc.userRepo.List(ctx)
}
