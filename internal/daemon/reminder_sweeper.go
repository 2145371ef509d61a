package daemon

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gitKheang/library-management-system/internal/circulation"
)

// ReminderSweeper periodically sends reminders for overdue loans that were
// never reminded. Each loan is reminded at most once; the ledger's one-way
// flag prevents re-sends.
type ReminderSweeper struct {
	Svc      *circulation.Service
	Interval time.Duration
}

func (s *ReminderSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent, err := s.Svc.SweepOverdueReminders(ctx)
				if err != nil {
					log.WithError(err).Error("reminder sweep failed")
					continue
				}
				if sent > 0 {
					log.WithField("count", sent).Info("reminder sweep sent reminders")
				}
			}
		}
	}()
}
