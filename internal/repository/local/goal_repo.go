package local

import (
	"context"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

type GoalRepo struct {
	store *Store
}

func NewGoalRepo(store *Store) *GoalRepo {
	return &GoalRepo{store: store}
}

func (r *GoalRepo) Get(ctx context.Context) (*domain.Goal, error) {
	rec, err := loadJSON[goalRecord](ctx, r.store.reader(ctx), goalKey)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &domain.Goal{Amount: rec.Amount, UpdatedAt: rec.UpdatedAt}, nil
}

func (r *GoalRepo) Save(ctx context.Context, goal *domain.Goal) error {
	return r.store.mutate(ctx, func(view BlobStore) error {
		return storeJSON(ctx, view, goalKey, goalRecord{Amount: goal.Amount, UpdatedAt: goal.UpdatedAt})
	})
}
