package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/repo"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx rebinds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Create inserts a new user and links it to role. Both rows commit together;
// inside an outer transaction gorm uses a savepoint.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO, role enums.Role) (*models.User, error) {
	user := dto.ToModel()
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return NewRepository(tx).AssignRole(ctx, user.ID, role)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, user.ID)
}

// AssignRole links the user to the seeded role row with the given name.
func (r *Repository) AssignRole(ctx context.Context, userID uuid.UUID, role enums.Role) error {
	var row models.Role
	if err := r.DB(ctx).Where("name = ?", role).First(&row).Error; err != nil {
		return fmt.Errorf("lookup role %s: %w", role, err)
	}
	return r.DB(ctx).Create(&models.UserRole{UserID: userID, RoleID: row.ID}).Error
}

// FindByEmail retrieves the user matching the provided email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Preload("Roles").
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByGoogleSubject retrieves the user linked to a Google account.
func (r *Repository) FindByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Preload("Roles").Where("google_subject = ?", subject).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user with roles.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether any account already uses email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// UsernameExists reports whether the username is taken.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// Update applies column updates to a user.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LinkGoogle attaches a Google subject to an existing account and marks the email verified.
func (r *Repository) LinkGoogle(ctx context.Context, id uuid.UUID, subject string) error {
	return r.Update(ctx, id, map[string]any{
		"google_subject": subject,
		"email_verified": true,
	})
}

// SetActive toggles the soft-deactivation flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.Update(ctx, id, map[string]any{"is_active": active})
}

// List returns one page of users for the admin listing.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.User, int64, error) {
	query := r.DB(ctx).Model(&models.User{}).Preload("Roles")
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(email) LIKE ? OR lower(username) LIKE ? OR lower(full_name) LIKE ?", like, like, like)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Role != nil {
		query = query.Where("id IN (?)", r.DB(ctx).
			Table("user_roles").
			Select("user_roles.user_id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.name = ?", *filters.Role))
	}

	var rows []models.User
	total, err := repo.Paginate(query, params, "created_at DESC", &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
