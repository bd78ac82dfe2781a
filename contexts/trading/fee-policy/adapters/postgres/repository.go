package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the fee singleton as a single keyed row, upserted on
// every write.
type Repository struct {
	db         *gorm.DB
	logger     *slog.Logger
	defaultFee uint64
}

func NewRepository(db *gorm.DB, defaultFee uint64, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:         db,
		logger:     logger,
		defaultFee: defaultFee,
	}
}

type feePolicyModel struct {
	Name      string `gorm:"column:name;primaryKey"`
	Amount    uint64 `gorm:"column:amount"`
	UpdatedAt time.Time
}

func (feePolicyModel) TableName() string { return "fee_policies" }

// Models returns the gorm models this repository owns, for auto-migration.
func Models() []any {
	return []any{&feePolicyModel{}}
}

func (r *Repository) GetFee(ctx context.Context) (uint64, error) {
	var row feePolicyModel
	err := r.db.WithContext(ctx).
		Where("name = ?", "listing_fee").
		First(&row).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.defaultFee, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Amount, nil
}

func (r *Repository) SetFee(ctx context.Context, amount uint64) error {
	row := feePolicyModel{
		Name:      "listing_fee",
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&row).
		Error
}
