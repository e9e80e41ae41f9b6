package app

import (
	"fmt"

	config "github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/internal/repository/local"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/closer"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/DRSN-tech/pos-backend/pkg/postgres"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

// storage — репозитории выбранного бэкенда хранения.
type storage struct {
	txManager usecase.TxManager
	products  usecase.ProductRepository
	sales     usecase.SaleRepository
	goals     usecase.GoalRepository
	outbox    usecase.OutboxRepository // nil для локальных бэкендов
	dsn       string
}

func initStorage(logger logger.Logger, cfg *config.Config, cl *closer.Closer) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := initPGDB(logger, cfg)
		if err != nil {
			return nil, err
		}
		cl.AddFunc("postgres", db.Close)

		return &storage{
			txManager: tr.NewPgTxManager(db.Pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}),
			products:  pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverterImpl{}),
			sales:     pgdb.NewSaleRepo(db.Pool, pgdbConv.SaleConverterImpl{}),
			goals:     pgdb.NewGoalRepo(db.Pool),
			outbox:    pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverterImpl{}),
			dsn:       db.Dsn,
		}, nil

	case config.BackendSQLite:
		db, err := local.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddFunc("sqlite", func() { _ = sqlDB.Close() })

		logger.Infof("using sqlite storage at %s", cfg.Storage.SQLitePath)
		return newLocalStorage(local.NewStore(local.NewSQLiteBlobStore(db))), nil

	case config.BackendMemory:
		logger.Warnf("using in-memory storage, data is lost on restart")
		return newLocalStorage(local.NewStore(local.NewMemoryBlobStore())), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q: %w", cfg.Storage.Backend, e.ErrIncorrectEnvVariable)
	}
}

func newLocalStorage(store *local.Store) *storage {
	return &storage{
		txManager: store,
		products:  local.NewProductRepo(store),
		sales:     local.NewSaleRepo(store),
		goals:     local.NewGoalRepo(store),
	}
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
