package service

import (
	"context"

	"wine_inference/dao"
	"wine_inference/entity"
)

type EvaluationService struct {
	evaluationDAO *dao.EvaluationDAO
}

func NewEvaluationService(evaluationDAO *dao.EvaluationDAO) *EvaluationService {
	return &EvaluationService{
		evaluationDAO: evaluationDAO,
	}
}

func (s *EvaluationService) List(ctx context.Context, params entity.QueryParams) (entity.PageResult, error) {
	if s.evaluationDAO == nil {
		return entity.PageResult{}, dao.ErrDBNotInitialized
	}
	records, total, err := s.evaluationDAO.FindAll(ctx, params)
	if err != nil {
		return entity.PageResult{}, err
	}
	return entity.PageResult{
		Total: total,
		List:  records,
	}, nil
}

func (s *EvaluationService) Get(ctx context.Context, id uint) (*entity.EvaluationRecord, error) {
	if s.evaluationDAO == nil {
		return nil, dao.ErrDBNotInitialized
	}
	return s.evaluationDAO.FindByID(ctx, id)
}
