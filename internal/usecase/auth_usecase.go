package usecase

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"chatwave/internal/domain/entity"
	"chatwave/internal/domain/repository"
	"chatwave/internal/infrastructure/auth"
	"chatwave/pkg/errors"
)

type AuthUseCase struct {
	userRepo     repository.UserRepository
	tokenManager *auth.TokenManager
}

func NewAuthUseCase(userRepo repository.UserRepository, tokenManager *auth.TokenManager) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     userRepo,
		tokenManager: tokenManager,
	}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	existing, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	user := &entity.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hash),
		LastSeen:     time.Now(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.tokenManager.Generate(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		// A wrong email and a wrong password look identical to the caller.
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.Unauthorized("Invalid email or password", nil)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.Unauthorized("Invalid email or password", nil)
	}

	token, err := uc.tokenManager.Generate(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (uc *AuthUseCase) GetUserByID(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}
