package repository

import (
	"context"

	"gorm.io/gorm"

	"daily-review/internal/model"
)

// OfferRepository stores offer questionnaires.
type OfferRepository struct {
	base
}

func (r *OfferRepository) Create(ctx context.Context, userID, title string) (*model.Offer, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("create offer", err)
	}
	now := r.now()
	offer := model.Offer{UserID: userID, Title: title, Answers: map[string]string{}, CreatedAt: now, UpdatedAt: now}
	if err := r.run(ctx, func(db *gorm.DB) error { return db.Create(&offer).Error }); err != nil {
		return nil, storeError("create offer", err)
	}
	return &offer, nil
}

func (r *OfferRepository) ListByUser(ctx context.Context, userID string) ([]model.Offer, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("list offers", err)
	}
	var offers []model.Offer
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&offers).Error
	})
	if err != nil {
		return nil, storeError("list offers", err)
	}
	return offers, nil
}

func (r *OfferRepository) Get(ctx context.Context, userID, offerID string) (*model.Offer, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("get offer", err)
	}
	var offer model.Offer
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND id = ?", userID, offerID).First(&offer).Error
	})
	if err != nil {
		return nil, storeError("get offer", err)
	}
	return &offer, nil
}

// SetAnswer merges one answer into the offer.
func (r *OfferRepository) SetAnswer(ctx context.Context, userID, offerID, questionID, answer string) (*model.Offer, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("save offer answer", err)
	}
	var offer model.Offer
	err := r.run(ctx, func(db *gorm.DB) error {
		if err := db.Where("user_id = ? AND id = ?", userID, offerID).First(&offer).Error; err != nil {
			return err
		}
		if offer.Answers == nil {
			offer.Answers = map[string]string{}
		}
		offer.Answers[questionID] = answer
		offer.UpdatedAt = r.now()
		return db.Model(&offer).Select("answers", "updated_at").Updates(&offer).Error
	})
	if err != nil {
		return nil, storeError("save offer answer", err)
	}
	return &offer, nil
}

func (r *OfferRepository) SetDraft(ctx context.Context, userID, offerID, draft string) error {
	if err := requireUser(userID); err != nil {
		return storeError("save offer draft", err)
	}
	err := r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Offer{}).Where("user_id = ? AND id = ?", userID, offerID).
			Updates(map[string]interface{}{"draft": draft, "updated_at": r.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeError("save offer draft", err)
}

func (r *OfferRepository) Delete(ctx context.Context, userID, offerID string) error {
	if err := requireUser(userID); err != nil {
		return storeError("delete offer", err)
	}
	err := r.run(ctx, func(db *gorm.DB) error {
		res := db.Where("user_id = ? AND id = ?", userID, offerID).Delete(&model.Offer{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeError("delete offer", err)
}
