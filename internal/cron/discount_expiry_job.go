package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/netstore-backend/pkg/logger"
)

type discountDeactivator interface {
	DeactivateEnded(ctx context.Context, now time.Time) (int64, error)
	DeactivateUsedUp(ctx context.Context, now time.Time) (int64, error)
}

type DiscountExpiryJobParams struct {
	Logger    *logger.Logger
	Discounts discountDeactivator
}

// NewDiscountExpiryJob switches off discount codes that ended or ran out of uses.
func NewDiscountExpiryJob(params DiscountExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &discountExpiryJob{
		logg:      params.Logger,
		discounts: params.Discounts,
		now:       time.Now,
	}, nil
}

type discountExpiryJob struct {
	logg      *logger.Logger
	discounts discountDeactivator
	now       func() time.Time
}

func (j *discountExpiryJob) Name() string { return "discount_expiry" }

func (j *discountExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs error

	ended, err := j.discounts.DeactivateEnded(ctx, now)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("deactivate ended discounts: %w", err))
	}
	usedUp, err := j.discounts.DeactivateUsedUp(ctx, now)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("deactivate used up discounts: %w", err))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"ended":   ended,
		"used_up": usedUp,
	})
	j.logg.Info(logCtx, "discount expiry sweep complete")
	return errs
}
