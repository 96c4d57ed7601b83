package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"daily-review/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	base
}

// UpsertFromTelegram finds or creates a user based on TelegramID and updates basic profile info.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, displayName, username string) (*model.User, error) {
	var user model.User
	err := r.run(ctx, func(db *gorm.DB) error {
		err := db.Where("telegram_id = ?", telegramID).First(&user).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"display_name": displayName,
				"username":     username,
			}
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = model.User{
				TelegramID:  telegramID,
				DisplayName: displayName,
				Username:    username,
			}
			if err := db.Create(&user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("find user: %w", err)
		}
	})
	if err != nil {
		return nil, storeError("upsert user", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("telegram_id = ?", telegramID).First(&user).Error
	})
	if err != nil {
		return nil, storeError("find user", err)
	}
	return &user, nil
}
