package repository

import (
	"errors"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository stores the remote reader-service credentials
type AccountRepository interface {
	// Get returns the account, or nil when no tokens have been provisioned
	Get() (*syncdomain.RemoteAccount, error)
	Save(account *syncdomain.RemoteAccount) error
}

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new instance of accountRepository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get() (*syncdomain.RemoteAccount, error) {
	var account syncdomain.RemoteAccount
	err := r.db.Where("id = ?", syncdomain.AccountRowID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Save(account *syncdomain.RemoteAccount) error {
	account.ID = syncdomain.AccountRowID
	account.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_expiry", "updated_at"}),
	}).Create(account).Error
}
