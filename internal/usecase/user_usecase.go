package usecase

import (
	"context"
	"time"

	"chatwave/internal/domain/entity"
	"chatwave/internal/domain/repository"
)

type UserUseCase struct {
	userRepo repository.UserRepository
}

func NewUserUseCase(userRepo repository.UserRepository) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
	}
}

type UpdateProfileInput struct {
	Username  string `json:"username" validate:"omitempty,min=3,max=30"`
	Bio       string `json:"bio" validate:"omitempty,max=300"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != "" {
		user.Username = input.Username
	}
	if input.Bio != "" {
		user.Bio = input.Bio
	}
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}
	user.UpdatedAt = time.Now()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (uc *UserUseCase) SearchUsers(ctx context.Context, query string, limit, offset int) ([]*entity.User, int64, error) {
	return uc.userRepo.Search(ctx, query, limit, offset)
}
