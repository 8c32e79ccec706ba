package app

import (
	"context"
	"database/sql"

	"github.com/fiffu/fplwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Sugar().Panicw("failed to connect database", "err", err)
	}
	log.Info("Database started")

	log.Info("Starting migrations")
	db.AutoMigrate(
		&PlayerNews{},
		&Subscription{},
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db
}

// PlayerNews holds the last observed news text per (player, team) identity.
// A NULL TeamID is the global snapshot, distinct from every team-scoped
// snapshot of the same player. At most one row per identity; rows are
// updated in place and never deleted.
type PlayerNews struct {
	gorm.Model
	PlayerID int64 `gorm:"index:idx_player_team"`
	News     string
	TeamID   sql.NullInt64 `gorm:"index:idx_player_team"`
}

// Subscription rows keep history: enrolment inserts a row, cancellation
// flips the newest row's flag. The newest row for a handle decides state.
type Subscription struct {
	gorm.Model
	Subscribed bool
	Handle     string `gorm:"index"`
	TeamID     int64
	MentionID  int64
}
