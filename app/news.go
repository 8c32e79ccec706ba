package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Decision classifies the outcome of reconciling one news observation.
type Decision int

const (
	NotNew Decision = iota
	New
)

func (d Decision) String() string {
	if d == New {
		return "new"
	}
	return "not_new"
}

// ObservedNews is one provider-supplied reading of a player's news field.
// Added is nil when the provider did not timestamp the change.
type ObservedNews struct {
	Text  string
	Added *time.Time
}

func NewDetector(lc fx.Lifecycle, log *zap.Logger, db *gorm.DB) *Detector {
	return &Detector{log, db}
}

type Detector struct {
	log *zap.Logger
	db  *gorm.DB
}

// UpdateNews reconciles an observation against the stored snapshot for
// (playerID, teamID) and reports whether it warrants a notification.
// A nil teamID addresses the global snapshot.
//
// The first sighting of an identity records a baseline and is never New;
// a cold start must not produce a notification storm.
func (d *Detector) UpdateNews(ctx context.Context, playerID int64, observed ObservedNews, teamID *int64) (Decision, error) {
	var record PlayerNews
	lookup := d.db.WithContext(ctx).Where("player_id = ?", playerID)
	if teamID == nil {
		lookup = lookup.Where("team_id IS NULL")
	} else {
		lookup = lookup.Where("team_id = ?", *teamID)
	}

	err := lookup.First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = PlayerNews{PlayerID: playerID, News: observed.Text}
		if teamID != nil {
			record.TeamID = sql.NullInt64{Int64: *teamID, Valid: true}
		}
		if err := d.db.WithContext(ctx).Create(&record).Error; err != nil {
			return NotNew, err
		}
		return NotNew, nil

	case err != nil:
		return NotNew, err
	}

	if record.News == observed.Text {
		return NotNew, nil
	}

	// Persist before classifying, so a crash after this write cannot cause
	// the same change to be re-detected next cycle.
	if err := d.db.WithContext(ctx).Model(&record).Update("news", observed.Text).Error; err != nil {
		return NotNew, err
	}

	if observed.Added == nil {
		// Untimestamped changes are not attributable to an event.
		return NotNew, nil
	}
	return New, nil
}
