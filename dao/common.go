package dao

import (
	"context"
	"errors"
	"log/slog"
	"wine_inference/config"
	"wine_inference/entity"

	"gorm.io/gorm"
)

var (
	ErrDBNotInitialized = errors.New("gorm db 没有初始化")
	ErrInvalidID        = errors.New("传入的 ID 不合法")
	ErrNilEntity        = errors.New("实体对象 为 nil")
)

func daoLogger() *slog.Logger {
	logger := config.EnsureLoggerInitialized()
	if logger == nil {
		return slog.Default()
	}
	return logger.With("layer", "dao")
}

// withContext 安全增加上下文
func withContext(dbConn *gorm.DB, ctx context.Context) (*gorm.DB, error) {
	if dbConn == nil {
		daoLogger().Error("db is nil", "func", "withContext")
		return nil, ErrDBNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return dbConn.WithContext(ctx), nil
}

// 返回分页参数
func pagination(params entity.QueryParams) (offset, limit int) {
	return params.GetOffset(), params.GetLimit()
}
