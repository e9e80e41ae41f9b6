package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// GoalRepo хранит цель по выручке в таблице из одной строки.
type GoalRepo struct {
	pool *pgxpool.Pool
}

func NewGoalRepo(pool *pgxpool.Pool) *GoalRepo {
	return &GoalRepo{pool: pool}
}

func (g *GoalRepo) Get(ctx context.Context) (*domain.Goal, error) {
	var model converter.GoalModel

	err := tr.QuerierFromCtx(ctx, g.pool).
		QueryRow(ctx, `SELECT amount, updated_at FROM revenue_goal WHERE id = 1`).
		Scan(&model.Amount, &model.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.Goal{}, nil
	}
	if err != nil {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return &domain.Goal{Amount: model.Amount, UpdatedAt: model.UpdatedAt}, nil
}

func (g *GoalRepo) Save(ctx context.Context, goal *domain.Goal) error {
	query := `
		INSERT INTO revenue_goal (id, amount, updated_at)
		VALUES (1, $1, COALESCE($2, NOW()))
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := tr.QuerierFromCtx(ctx, g.pool).Exec(ctx, query, goal.Amount, goal.UpdatedAt); err != nil {
		return e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}
