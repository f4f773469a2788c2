package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MarsAI_Festival/internal/model"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

// InitDB 连接 MySQL、建表并写入角色种子数据
func InitDB(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := Open(gormmysql.Open(dsn), log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

// Open 按给定方言打开连接，测试里传 sqlite
func Open(dialector gorm.Dialector, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate 自动建表（开发阶段 OK）并保证四个角色存在
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Category{},
		&model.Film{},
		&model.Rating{},
		&model.Assignment{},
		&model.Invitation{},
		&model.FilmOutbox{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	roles := make([]model.Role, 0, len(model.AllRoles))
	for _, name := range model.AllRoles {
		roles = append(roles, model.Role{Name: name})
	}
	// 幂等写入：已存在的角色不报错
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}

// Close 关闭连接池（在程序退出时调用）
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
