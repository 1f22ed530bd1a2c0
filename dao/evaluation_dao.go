package dao

import (
	"context"
	"fmt"
	"strings"
	"wine_inference/entity"

	"gorm.io/gorm"
)

type EvaluationDAO struct {
	DB *gorm.DB
}

// NewEvaluationDAO 创建 EvaluationDAO。
func NewEvaluationDAO(db *gorm.DB) *EvaluationDAO {
	return &EvaluationDAO{
		DB: db,
	}
}

// Save 保存一条评估记录。
func (d *EvaluationDAO) Save(ctx context.Context, record *entity.EvaluationRecord) error {
	logger := daoLogger().With("dao", "EvaluationDAO", "method", "Save")
	if record == nil {
		logger.Warn("save evaluation skipped: record is nil")
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save evaluation failed: %w", err)
	}
	if err := dbConn.Create(record).Error; err != nil {
		logger.Error("save evaluation failed: db create", "request_id", record.RequestID, "error", err)
		return fmt.Errorf("save evaluation failed: %w", err)
	}
	logger.Debug("save evaluation success", "id", record.ID, "request_id", record.RequestID)
	return nil
}

// FindByID 根据主键查询单条评估记录。
func (d *EvaluationDAO) FindByID(ctx context.Context, id uint) (*entity.EvaluationRecord, error) {
	if id == 0 {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find evaluation by id failed: %w", err)
	}

	var record entity.EvaluationRecord
	if err := dbConn.First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindAll 按查询参数分页获取评估记录与总数。
func (d *EvaluationDAO) FindAll(ctx context.Context, params entity.QueryParams) ([]entity.EvaluationRecord, int64, error) {
	logger := daoLogger().With("dao", "EvaluationDAO", "method", "FindAll")
	var records []entity.EvaluationRecord
	var total int64

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find evaluations failed: %w", err)
	}

	dbConn = dbConn.Model(&entity.EvaluationRecord{})

	// 1. 指标组合过滤
	if params.Status != nil {
		dbConn = dbConn.Where("status = ?", *params.Status)
	}
	if params.MinF1 != nil {
		dbConn = dbConn.Where("f1_score >= ?", *params.MinF1)
	}
	if requestID := strings.TrimSpace(params.RequestID); requestID != "" {
		dbConn = dbConn.Where("request_id = ?", requestID)
	}
	if fileName := strings.TrimSpace(params.FileName); fileName != "" {
		dbConn = dbConn.Where("file_name LIKE ?", "%"+fileName+"%")
	}

	// 2. 排序规则
	orderStr := "id DESC"
	switch strings.ToLower(strings.TrimSpace(params.F1Sort)) {
	case "asc":
		orderStr = "f1_score ASC, id DESC"
	case "desc":
		orderStr = "f1_score DESC, id DESC"
	}

	// 3. 获取总数
	if err := dbConn.Count(&total).Error; err != nil {
		logger.Error("count evaluations failed", "error", err)
		return nil, 0, fmt.Errorf("count evaluations failed: %w", err)
	}

	// 4. 执行分页查询
	offset, limit := pagination(params)
	if err := dbConn.Order(orderStr).Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		logger.Error("query evaluations failed", "error", err)
		return nil, 0, fmt.Errorf("query evaluations failed: %w", err)
	}

	return records, total, nil
}
