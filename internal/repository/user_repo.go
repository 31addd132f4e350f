package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/david-shiko/rubik-sub000/internal/db"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
)

// UserRepository provides data access methods for user profiles and photos.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get returns the profile row of a user.
//
// Behavior:
//   - Missing users are reported as a not-found error.
func (r *UserRepository) Get(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveProfile inserts or updates the profile fields of a user.
//
// Behavior:
//   - If the id exists → goal, gender, age, location and comment are overwritten.
//   - If it doesn't exist → a new row is inserted.
//
// Example:
//
//	repo.SaveProfile(ctx, &db.User{ID: 1, Age: 30}) // user 1 is now 30
func (r *UserRepository) SaveProfile(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"goal", "gender", "age", "country", "city", "comment", "updated_at",
			}),
		}).
		Create(u).Error
}

// Photos lists the photos of a user in upload order.
func (r *UserRepository) Photos(ctx context.Context, userID uint64) ([]db.UserPhoto, error) {
	var photos []db.UserPhoto
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&photos).Error
	return photos, err
}

// ReplacePhotos swaps the photo set of a user in one transaction.
func (r *UserRepository) ReplacePhotos(ctx context.Context, userID uint64, fileIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.UserPhoto{}).Error; err != nil {
			return err
		}
		if len(fileIDs) == 0 {
			return nil
		}
		photos := make([]db.UserPhoto, 0, len(fileIDs))
		for _, f := range fileIDs {
			photos = append(photos, db.UserPhoto{UserID: userID, FileID: f})
		}
		return tx.Create(&photos).Error
	})
}

// CountUsers returns how many users are registered. Used by the seeder to
// stay idempotent.
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Count(&count).Error
	return count, err
}
