package mealstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var _ contractx.PlanSink = (*BunStore)(nil)

type Config struct {
	DSN     string        `envconfig:"DSN"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

// Meal is one row per (day, meal type) slot.
type Meal struct {
	bun.BaseModel `bun:"table:meals,alias:m"`

	ID        int64  `bun:"id,pk,autoincrement"`
	DayOfWeek string `bun:"day_of_week,notnull,unique:meals_slot"`
	MealType  string `bun:"meal_type,notnull,unique:meals_slot"`
	ItemName  string `bun:"item_name,notnull"`
}

type BunStore struct {
	db *bun.DB
}

func Open(ctx context.Context, cfg Config) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: meal store dsn is empty", contractx.ErrValidation)
	}

	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if cfg.Timeout > 0 {
		opts = append(opts, pgdriver.WithTimeout(cfg.Timeout))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping meal store: %w", err)
	}
	return NewBunStore(db)
}

func NewBunStore(db *bun.DB) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &BunStore{db: db}, nil
}

func (s *BunStore) CreateTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Meal)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create meals table: %w", err)
	}
	return nil
}

// Upsert finds or creates the row for slot and overwrites its item name.
func (s *BunStore) Upsert(ctx context.Context, slot contractx.MealSlot, itemName string) error {
	row, err := newMeal(slot, itemName)
	if err != nil {
		return err
	}
	if _, err := upsertQuery(s.db, row).Exec(ctx); err != nil {
		return fmt.Errorf("upsert %s: %w", slot, err)
	}
	return nil
}

// UpsertPlan writes every assignment in one transaction. Later assignments
// for the same slot win.
func (s *BunStore) UpsertPlan(ctx context.Context, plan contractx.WeeklyPlan) error {
	rows := make([]*Meal, 0, len(plan))
	for _, a := range plan {
		row, err := newMeal(a.Slot(), a.ItemName)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, row := range rows {
			if _, err := upsertQuery(tx, row).Exec(ctx); err != nil {
				return fmt.Errorf("upsert %s %s: %w", row.DayOfWeek, row.MealType, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("meals", len(rows)).Msg("plan persisted")
	return nil
}

func (s *BunStore) List(ctx context.Context) ([]Meal, error) {
	var meals []Meal
	if err := s.db.NewSelect().Model(&meals).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

func upsertQuery(db bun.IDB, row *Meal) *bun.InsertQuery {
	return db.NewInsert().
		Model(row).
		On("CONFLICT (day_of_week, meal_type) DO UPDATE").
		Set("item_name = EXCLUDED.item_name")
}

func newMeal(slot contractx.MealSlot, itemName string) (*Meal, error) {
	day, ok := contractx.ParseDay(string(slot.Day))
	if !ok {
		return nil, fmt.Errorf("%w: unknown day %q", contractx.ErrValidation, slot.Day)
	}
	meal, ok := contractx.ParseMealType(string(slot.Meal))
	if !ok {
		return nil, fmt.Errorf("%w: unknown meal type %q", contractx.ErrValidation, slot.Meal)
	}
	name := strings.TrimSpace(itemName)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is empty for %s", contractx.ErrValidation, slot)
	}
	return &Meal{DayOfWeek: string(day), MealType: string(meal), ItemName: name}, nil
}
