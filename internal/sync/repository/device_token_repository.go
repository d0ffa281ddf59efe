package repository

import (
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines the interface for FCM device token operations
type DeviceTokenRepository interface {
	SaveToken(token string) error
	GetTokens() ([]syncdomain.DeviceToken, error)
	DeleteToken(token string) error
}

// deviceTokenRepository implements DeviceTokenRepository interface
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a new instance of deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

// SaveToken saves or refreshes a device token (atomic upsert)
func (r *deviceTokenRepository) SaveToken(token string) error {
	deviceToken := &syncdomain.DeviceToken{
		ID:        uuid.New().String(),
		Token:     token,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(deviceToken).Error
}

// GetTokens returns all registered device tokens
func (r *deviceTokenRepository) GetTokens() ([]syncdomain.DeviceToken, error) {
	var tokens []syncdomain.DeviceToken
	err := r.db.Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken removes a specific device token
func (r *deviceTokenRepository) DeleteToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&syncdomain.DeviceToken{}).Error
}
