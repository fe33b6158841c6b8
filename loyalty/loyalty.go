// Package loyalty is the point-ledger and personal-discount collaborator.
// The core consumes it through the Ledger interface only.
package loyalty

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// ErrInsufficientBalance is wrapped in a Validation error when a spend
// exceeds the account balance.
var ErrInsufficientBalance = errors.New("insufficient bonus balance")

// Ledger is the narrow contract the order core depends on. 1 point equals
// 1 minor currency unit.
type Ledger interface {
	PersonalDiscount(ctx context.Context, customerID, restaurantID uint) (percent int64, active bool, err error)
	BonusBalance(ctx context.Context, customerID, networkID uint) (int64, error)
	SpendBonusPoints(ctx context.Context, customerID, networkID uint, amount int64, orderID uint, description string) (int64, error)
	EarnBonusPoints(ctx context.Context, customerID, networkID uint, amount int64, orderID uint, description string) (int64, error)
}

// GormLedger is the storage-backed implementation.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) PersonalDiscount(ctx context.Context, customerID, restaurantID uint) (int64, bool, error) {
	var pd models.PersonalDiscount
	err := l.db.WithContext(ctx).
		Where("customer_id = ? AND restaurant_id = ?", customerID, restaurantID).
		First(&pd).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperr.Internal(err, "personal discount lookup failed")
	}
	return pd.Percent, pd.Active, nil
}

func (l *GormLedger) BonusBalance(ctx context.Context, customerID, networkID uint) (int64, error) {
	account, err := l.account(ctx, l.db, customerID, networkID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// SpendBonusPoints debits the account and records a ledger entry. The debit
// is a conditional update so two concurrent spends cannot both succeed past
// the balance.
func (l *GormLedger) SpendBonusPoints(ctx context.Context, customerID, networkID uint, amount int64, orderID uint, description string) (int64, error) {
	if amount <= 0 {
		return 0, apperr.Validation("bonus spend amount must be positive, got %d", amount)
	}
	var newBalance int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := l.account(ctx, tx, customerID, networkID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.BonusAccount{}).
			Where("id = ? AND balance >= ?", account.ID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return apperr.Internal(res.Error, "bonus spend failed")
		}
		if res.RowsAffected == 0 {
			return apperr.Wrap(apperr.KindValidation, ErrInsufficientBalance,
				"cannot spend %d points, balance is %d", amount, account.Balance)
		}
		entry := models.BonusTransaction{
			AccountID:   account.ID,
			OrderID:     &orderID,
			Amount:      -amount,
			Description: description,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return apperr.Internal(err, "bonus ledger entry failed")
		}
		newBalance = account.Balance - amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// EarnBonusPoints credits the account and records a ledger entry. It is also
// the re-credit path when a redemption is removed from an order.
func (l *GormLedger) EarnBonusPoints(ctx context.Context, customerID, networkID uint, amount int64, orderID uint, description string) (int64, error) {
	if amount <= 0 {
		return 0, apperr.Validation("bonus earn amount must be positive, got %d", amount)
	}
	var newBalance int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := l.account(ctx, tx, customerID, networkID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.BonusAccount{}).
			Where("id = ?", account.ID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return apperr.Internal(err, "bonus earn failed")
		}
		entry := models.BonusTransaction{
			AccountID:   account.ID,
			OrderID:     &orderID,
			Amount:      amount,
			Description: description,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return apperr.Internal(err, "bonus ledger entry failed")
		}
		newBalance = account.Balance + amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (l *GormLedger) account(ctx context.Context, tx *gorm.DB, customerID, networkID uint) (*models.BonusAccount, error) {
	var account models.BonusAccount
	err := tx.WithContext(ctx).
		Where(models.BonusAccount{CustomerID: customerID, NetworkID: networkID}).
		FirstOrCreate(&account).Error
	if err != nil {
		return nil, apperr.Internal(err, "bonus account lookup failed")
	}
	return &account, nil
}
