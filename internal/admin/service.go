package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/users"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// Service backs the admin dashboard and user management.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	ListUsers(ctx context.Context, params pagination.Params, filters users.ListFilters) (pagination.Page[users.UserDTO], error)
	ToggleUserStatus(ctx context.Context, adminID, userID uuid.UUID) (*users.UserDTO, error)
}

type userDirectory interface {
	List(ctx context.Context, params pagination.Params, filters users.ListFilters) ([]models.User, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// sessionRevoker drops every refresh session a user holds.
type sessionRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type service struct {
	repo     *Repository
	users    userDirectory
	sessions sessionRevoker
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(repo *Repository, directory userDirectory, sessions sessionRevoker, logg *logger.Logger, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if directory == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session revoker required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, users: directory, sessions: sessions, logg: logg, now: now}, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := &Dashboard{GeneratedAt: now}
	var err error
	if out.Counts, err = s.repo.Counts(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dashboard counts")
	}
	if out.Revenue.Total, err = s.repo.RevenueSince(ctx, time.Time{}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dashboard revenue")
	}
	if out.Revenue.Today, err = s.repo.RevenueSince(ctx, today); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dashboard revenue")
	}
	if out.Revenue.ThisMonth, err = s.repo.RevenueSince(ctx, month); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dashboard revenue")
	}
	if out.OrdersByStatus, err = s.repo.OrdersByStatus(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dashboard status breakdown")
	}
	if out.TopProducts, err = s.repo.TopProducts(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dashboard top products")
	}
	if out.RecentOrders, err = s.repo.RecentOrders(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dashboard recent orders")
	}
	if out.OrdersByStatus == nil {
		out.OrdersByStatus = []StatusCount{}
	}
	if out.TopProducts == nil {
		out.TopProducts = []TopProduct{}
	}
	if out.RecentOrders == nil {
		out.RecentOrders = []RecentOrder{}
	}
	return out, nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params, filters users.ListFilters) (pagination.Page[users.UserDTO], error) {
	if filters.Role != nil && !filters.Role.IsValid() {
		return pagination.Page[users.UserDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *filters.Role)
	}
	rows, total, err := s.users.List(ctx, params, filters)
	if err != nil {
		return pagination.Page[users.UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	dtos := make([]users.UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *users.FromModel(&rows[i]))
	}
	return pagination.NewPage(dtos, total, params), nil
}

// ToggleUserStatus flips is_active. Admins cannot lock themselves out.
// Deactivation also revokes the user's sessions so outstanding access and
// refresh tokens stop working immediately.
func (s *service) ToggleUserStatus(ctx context.Context, adminID, userID uuid.UUID) (*users.UserDTO, error) {
	if adminID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you cannot change your own status")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	next := !user.IsActive
	if err := s.users.SetActive(ctx, userID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
	}
	user.IsActive = next

	revoked := 0
	if !next {
		if revoked, err = s.sessions.RevokeUser(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "user deactivated but sessions could not be revoked")
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"target_user_id":   userID.String(),
			"is_active":        next,
			"revoked_sessions": revoked,
		})
		s.logg.Info(logCtx, "user status toggled")
	}
	return users.FromModel(user), nil
}
