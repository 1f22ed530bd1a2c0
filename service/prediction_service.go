package service

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"wine_inference/entity"
	"wine_inference/ml"
)

type EvaluationRecorder interface {
	Save(ctx context.Context, record *entity.EvaluationRecord) error
}

type StatsRecorder interface {
	Record(ctx context.Context, outcome, requestID string, f1 *float64) error
}

type UploadArchiver interface {
	Archive(ctx context.Context, requestID, localPath string) (string, error)
}

type PredictionResult struct {
	RequestID  string  `json:"request_id"`
	FileName   string  `json:"file_name"`
	F1Score    float64 `json:"f1_score"`
	Rows       int     `json:"rows"`
	Positives  int     `json:"positives"`
	Average    string  `json:"average"`
	DurationMS int64   `json:"duration_ms"`
	ArchivedTo string  `json:"archived_to,omitempty"`
}

// PredictionService 处理 /predict 的完整流程；Recorder、Stats、Archiver、Metrics 可为 nil
type PredictionService struct {
	Uploads   *UploadService
	Inference *InferenceService
	Recorder  EvaluationRecorder
	Stats     StatsRecorder
	Archiver  UploadArchiver
	Metrics   *Metrics
}

// IsBadInput 判断错误是否由上传内容引起(对应 4xx)
func IsBadInput(err error) bool {
	return ml.IsInputError(err) ||
		errors.Is(err, ErrInvalidUploadFile) ||
		errors.Is(err, ErrUploadTooLarge)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsBadInput(err):
		return OutcomeBadInput
	default:
		return OutcomeError
	}
}

// Predict 保存上传文件 -> 评估 -> 归档 -> 记录结果与统计
func (s *PredictionService) Predict(ctx context.Context, file *multipart.FileHeader) (PredictionResult, error) {
	logger := serviceLogger().With("service", "PredictionService", "method", "Predict")
	start := time.Now()

	if s.Inference == nil {
		return PredictionResult{}, ml.ErrModelNotLoaded
	}

	upload, err := s.Uploads.Save(file)
	if err != nil {
		logger.Warn("predict failed: save upload", "error", err)
		s.finish(ctx, outcomeOf(err), "", 0, nil)
		return PredictionResult{}, err
	}
	defer s.Uploads.Cleanup(upload.SavedPath)

	logger.Info("predict begin", "request_id", upload.RequestID, "file_name", upload.OriginalName, "size", upload.Size)

	result, evalErr := s.Inference.Evaluate(ctx, upload.SavedPath)
	elapsed := time.Since(start)
	outcome := outcomeOf(evalErr)

	record := &entity.EvaluationRecord{
		RequestID:  upload.RequestID,
		FileName:   upload.OriginalName,
		Average:    s.Inference.evaluator.Average,
		DurationMS: elapsed.Milliseconds(),
		ModelPath:  s.Inference.modelPath,
	}

	if evalErr != nil {
		if outcome == OutcomeBadInput {
			logger.Warn("predict rejected", "request_id", upload.RequestID, "error", evalErr)
			record.Status = entity.EvaluationStatusBadInput
		} else {
			logger.Error("predict failed", "request_id", upload.RequestID, "error", evalErr)
			record.Status = entity.EvaluationStatusFailed
		}
		record.ErrorMessage = truncate(evalErr.Error(), 1024)
		s.record(ctx, record)
		s.finish(ctx, outcome, upload.RequestID, 0, nil)
		return PredictionResult{}, evalErr
	}

	f1 := result.F1Score
	out := PredictionResult{
		RequestID:  upload.RequestID,
		FileName:   upload.OriginalName,
		F1Score:    f1,
		Rows:       result.Rows,
		Positives:  result.Positives,
		Average:    result.Average,
		DurationMS: elapsed.Milliseconds(),
	}

	if s.Archiver != nil {
		// 客户端断开不影响已成功评估文件的归档
		location, err := s.Archiver.Archive(context.WithoutCancel(ctx), upload.RequestID, upload.SavedPath)
		if err != nil {
			logger.Warn("archive upload failed", "request_id", upload.RequestID, "error", err)
		} else {
			out.ArchivedTo = location
		}
	}

	record.Status = entity.EvaluationStatusSucceeded
	record.RowCount = result.Rows
	record.PositiveCount = result.Positives
	record.F1Score = &f1
	s.record(ctx, record)
	s.finish(ctx, OutcomeSuccess, upload.RequestID, result.Rows, &f1)

	logger.Info("predict success",
		"request_id", upload.RequestID,
		"rows", result.Rows,
		"f1_score", f1,
		"cost_ms", elapsed.Milliseconds(),
	)
	return out, nil
}

// record 与 finish 不受请求取消影响
func (s *PredictionService) record(ctx context.Context, record *entity.EvaluationRecord) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Save(context.WithoutCancel(ctx), record); err != nil {
		serviceLogger().Warn("save evaluation record failed", "request_id", record.RequestID, "error", err)
	}
}

func (s *PredictionService) finish(ctx context.Context, outcome, requestID string, rows int, f1 *float64) {
	s.Metrics.ObservePrediction(outcome, rows, f1)
	if s.Stats == nil {
		return
	}
	if err := s.Stats.Record(context.WithoutCancel(ctx), outcome, requestID, f1); err != nil {
		serviceLogger().Warn("record stats failed", "request_id", requestID, "error", err)
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
