package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
)

// Repository persists addresses and their user links.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// ListByUser returns the user's addresses, default first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	var rows []models.UserAddress
	err := r.DB(ctx).
		Preload("Address").
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindForUser loads one address link, failing with gorm.ErrRecordNotFound when
// the user does not own the address.
func (r *Repository) FindForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.UserAddress, error) {
	var row models.UserAddress
	err := r.DB(ctx).
		Preload("Address").
		Where("user_id = ? AND address_id = ?", userID, addressID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.UserAddress{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Create inserts the address and links it to userID.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, addr *models.Address, isDefault bool) (*models.UserAddress, error) {
	if err := r.DB(ctx).Create(addr).Error; err != nil {
		return nil, err
	}
	link := &models.UserAddress{UserID: userID, AddressID: addr.ID, IsDefault: isDefault}
	if err := r.DB(ctx).Create(link).Error; err != nil {
		return nil, err
	}
	link.Address = addr
	return link, nil
}

func (r *Repository) UpdateAddress(ctx context.Context, addr *models.Address) error {
	return r.DB(ctx).Model(&models.Address{}).Where("id = ?", addr.ID).Updates(map[string]any{
		"recipient_name": addr.RecipientName,
		"phone":          addr.Phone,
		"line1":          addr.Line1,
		"line2":          addr.Line2,
		"ward":           addr.Ward,
		"district":       addr.District,
		"city":           addr.City,
		"country":        addr.Country,
		"postal_code":    addr.PostalCode,
	}).Error
}

func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.DB(ctx).Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *Repository) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.DB(ctx).Model(&models.UserAddress{}).
		Where("user_id = ? AND address_id = ?", userID, addressID).
		Update("is_default", true).Error
}

// Unlink removes the ownership row, leaving the address for existing orders.
func (r *Repository) Unlink(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.DB(ctx).Where("user_id = ? AND address_id = ?", userID, addressID).Delete(&models.UserAddress{}).Error
}

// CountOrderReferences counts orders shipping or billing to the address.
func (r *Repository) CountOrderReferences(ctx context.Context, addressID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.ShopOrder{}).
		Where("shipping_address_id = ? OR billing_address_id = ?", addressID, addressID).
		Count(&count).Error
	return count, err
}

func (r *Repository) DeleteAddress(ctx context.Context, addressID uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Address{}, "id = ?", addressID).Error
}

// PromoteLatest marks the most recently added address as default.
func (r *Repository) PromoteLatest(ctx context.Context, userID uuid.UUID) error {
	var link models.UserAddress
	err := r.DB(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&link).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return r.SetDefault(ctx, userID, link.AddressID)
}
