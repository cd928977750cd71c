package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobhunt/internal/convert"
	"jobhunt/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store 封装 SQLite 数据库访问，提供查询、写入与事务原语以及各阶段的队列操作。
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open 打开（必要时创建）数据库文件并自动迁移四张表。
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate 创建或补齐四张表及其索引，可重复执行。
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(model.Tables()...); err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}
	return nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_busy_timeout=5000"
	}
	return path + "?_busy_timeout=5000"
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Exec 执行不返回结果的 SQL，返回受影响行数。
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tx := s.db.WithContext(ctx).Exec(query, args...)
	if tx.Error != nil {
		return 0, fmt.Errorf("exec: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// Query 执行查询并将结果扫描到 dest。
func (s *Store) Query(ctx context.Context, dest any, query string, args ...any) error {
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}

// Insert 批量写入 rows（行模型切片）到 table。
func (s *Store) Insert(ctx context.Context, table string, rows any) error {
	if err := s.db.WithContext(ctx).Table(table).Create(rows).Error; err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// WithTransaction 在单个事务中执行 fn，fn 返回错误或 panic 时回滚，否则提交。
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, now: s.now})
	})
}

// Tables 列出数据库中的业务表。
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.Query(ctx, &names, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

func (s *Store) timestamp() string {
	return convert.FormatTimeSafely(s.now())
}
