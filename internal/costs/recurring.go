package costs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mueblesworkflow/backend/internal/logging"
	"github.com/mueblesworkflow/backend/internal/models"
)

const autoSuffix = " (auto)"

// Generator appends copies of recurring costs on the days they come due.
type Generator struct {
	DB *gorm.DB
}

// Run ticks once a day until the context is cancelled. It also runs once at
// startup so a restart never skips a day.
func (g *Generator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)

	if n, err := g.GenerateFor(time.Now()); err != nil {
		log.Error("recurring cost generation failed", "error", err)
	} else if n > 0 {
		log.Info("recurring costs generated", "count", n)
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := g.GenerateFor(time.Now()); err != nil {
				log.Error("recurring cost generation failed", "error", err)
			} else if n > 0 {
				log.Info("recurring costs generated", "count", n)
			}
		}
	}
}

// GenerateFor appends one copy of every recurring cost due on the given day
// and reports how many were created.
func (g *Generator) GenerateFor(today time.Time) (int, error) {
	var recurring []models.Cost
	if err := g.DB.Where("frequency <> ?", models.FrequencyOneTime).Find(&recurring).Error; err != nil {
		return 0, fmt.Errorf("costs: load recurring: %w", err)
	}

	created := 0
	for _, original := range recurring {
		if !DueOn(original, today) {
			continue
		}

		exists, err := g.alreadyGenerated(original, today)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		copyCost := models.Cost{
			Date:      truncateDay(today),
			Amount:    original.Amount,
			Category:  original.Category,
			Frequency: original.Frequency,
			Reason:    original.Reason + autoSuffix,
			CreatedAt: time.Now(),
		}
		if err := g.DB.Create(&copyCost).Error; err != nil {
			return created, fmt.Errorf("costs: create copy: %w", err)
		}
		created++
	}
	return created, nil
}

// DueOn reports whether a recurring cost falls due on the given day. The
// source day itself never regenerates.
func DueOn(c models.Cost, today time.Time) bool {
	start := c.Date
	if sameDay(start, today) {
		return false
	}
	switch c.Frequency {
	case models.FrequencyWeekly:
		return start.Weekday() == today.Weekday()
	case models.FrequencyMonthly:
		return start.Day() == today.Day()
	case models.FrequencyYearly:
		return start.Month() == today.Month() && start.Day() == today.Day()
	}
	return false
}

func (g *Generator) alreadyGenerated(original models.Cost, today time.Time) (bool, error) {
	var count int64
	err := g.DB.Model(&models.Cost{}).
		Where("date BETWEEN ? AND ?", truncateDay(today), endOfDay(today)).
		Where("reason = ? AND amount = ?", original.Reason+autoSuffix, original.Amount).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("costs: duplicate check: %w", err)
	}
	return count > 0, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
