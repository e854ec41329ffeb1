package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn exposes the raw connection so repositories can rebind in WithTx.
func (b Base) Conn() *gorm.DB {
	return b.db
}

// Paginate counts the filtered query and then loads one page of rows into dest.
// The query must already carry its filters; order is applied after counting.
func Paginate(query *gorm.DB, params pagination.Params, order string, dest any) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	n := params.Normalize()
	page := query.Session(&gorm.Session{})
	if order != "" {
		page = page.Order(order)
	}
	if err := page.Limit(n.Limit).Offset(n.Offset()).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
