package orders

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
)

// scheduledLeadTime: a confirmed scheduled order starts preparing once its
// scheduled time is within this window.
const scheduledLeadTime = time.Hour

// SweepScheduled auto-starts confirmed scheduled orders whose time is near:
// the order moves to PREPARING and its still-created lines to IN_PROGRESS.
// The sweep re-checks the status inside each transaction so re-running it,
// or racing a user-initiated transition, is a no-op for already-processed
// orders. Returns how many orders were started.
func (s *Service) SweepScheduled(ctx context.Context) (int, error) {
	cutoff := s.now().Add(scheduledLeadTime)
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?",
			models.OrderConfirmed, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	started := 0
	for _, id := range ids {
		processed := false
		_, err := s.mutate(ctx, id, func(tx *gorm.DB, o *models.Order) (string, error) {
			// the order may have moved since the candidate query
			if o.Status != models.OrderConfirmed || o.ScheduledFor == nil || o.ScheduledFor.After(cutoff) {
				return "", nil
			}
			if err := s.writeOrderStatus(tx, o, models.OrderPreparing, 0, "scheduled order started"); err != nil {
				return "", err
			}
			for i := range o.Items {
				if o.Items[i].Status != models.ItemCreated {
					continue
				}
				if err := s.applyItemTransition(tx, &o.Items[i], models.ItemInProgress, 0, ""); err != nil {
					return "", err
				}
			}
			processed = true
			return notify.EventStatusChanged, nil
		})
		if err != nil {
			s.log.Error().Err(err).Uint("order_id", id).Msg("scheduled sweep failed for order")
			continue
		}
		if processed {
			started++
		}
	}
	return started, nil
}

// Scheduler runs the sweep on a fixed interval until the context ends.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(svc *Service, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{svc: svc, interval: interval, log: log}
}

func (sc *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	sc.log.Info().Dur("interval", sc.interval).Msg("scheduled-order sweep running")
	for {
		select {
		case <-ctx.Done():
			sc.log.Info().Msg("scheduled-order sweep stopped")
			return
		case <-ticker.C:
			started, err := sc.svc.SweepScheduled(ctx)
			if err != nil {
				sc.log.Error().Err(err).Msg("scheduled sweep failed")
				continue
			}
			if started > 0 {
				sc.log.Info().Int("orders", started).Msg("scheduled orders started")
			}
		}
	}
}
