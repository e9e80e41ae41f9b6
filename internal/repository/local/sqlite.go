package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// BlobModel — строка таблицы blobs.
type BlobModel struct {
	Name      string `gorm:"primaryKey;size:64"`
	Data      []byte
	UpdatedAt time.Time
}

func (BlobModel) TableName() string {
	return "blobs"
}

// SQLiteBlobStore — BlobStore в файле SQLite через gorm.
type SQLiteBlobStore struct {
	db *gorm.DB
}

// OpenSQLite открывает (или создаёт) файл базы и таблицу blobs.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	// Один писатель: SQLite всё равно сериализует записи
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&BlobModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

func NewSQLiteBlobStore(db *gorm.DB) *SQLiteBlobStore {
	return &SQLiteBlobStore{db: db}
}

func (s *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var model BlobModel
	err := s.db.WithContext(ctx).Where("name = ?", key).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return model.Data, nil
}

func (s *SQLiteBlobStore) Put(ctx context.Context, key string, data []byte) error {
	model := BlobModel{Name: key, Data: data, UpdatedAt: time.Now().UTC()}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Atomic выполняет fn в транзакции gorm. Ошибка fn откатывает все записи.
func (s *SQLiteBlobStore) Atomic(ctx context.Context, fn func(view BlobStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteBlobStore{db: tx})
	})
}
