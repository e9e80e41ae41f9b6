package redis

import (
	"context"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/pkg/clients"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

const idempotencyKeyPrefix = "idempotency:sale:"

// IdempotencyRepo помнит ключи Idempotency-Key проведённых продаж.
type IdempotencyRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
}

func NewIdempotencyRepo(client *clients.RedisClient, cfg *cfg.RedisCfg) *IdempotencyRepo {
	return &IdempotencyRepo{
		client: client,
		cfg:    cfg,
	}
}

// Reserve атомарно занимает ключ. false означает, что запрос с этим ключом уже был.
func (i *IdempotencyRepo) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := i.client.Client.SetNX(ctx, idempotencyKeyPrefix+key, 1, i.cfg.IdempotencyTTL).Result()
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return ok, nil
}

// Release освобождает ключ после неудачной продажи, чтобы клиент мог повторить запрос.
func (i *IdempotencyRepo) Release(ctx context.Context, key string) error {
	if err := i.client.Client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
