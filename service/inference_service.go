package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"wine_inference/config"
	"wine_inference/ml"
)

const (
	featuresCol   = "features"
	predictionCol = "prediction"
)

type InferenceOptions struct {
	Average          string
	// nil 时使用 config.DefaultQualityThreshold
	QualityThreshold *float64
	ModelPath        string
}

type InferenceResult struct {
	F1Score   float64       `json:"f1_score"`
	Rows      int           `json:"rows"`
	Positives int           `json:"positives"`
	Average   string        `json:"average"`
	Duration  time.Duration `json:"-"`
}

type ModelInfo struct {
	Path        string    `json:"path"`
	NumTrees    int       `json:"num_trees"`
	NumFeatures int       `json:"num_features"`
	Classes     []int     `json:"classes"`
	Average     string    `json:"f1_average"`
	Threshold   float64   `json:"quality_threshold"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// InferenceService 持有已加载的模型，启动时创建一次，之后只读
type InferenceService struct {
	model      *ml.RandomForestModel
	modelPath  string
	loadedAt   time.Time
	schema     ml.Schema
	csvOptions ml.CSVOptions
	threshold  float64
	evaluator  ml.MulticlassEvaluator
}

func NewInferenceService(model *ml.RandomForestModel, opts InferenceOptions) (*InferenceService, error) {
	if model == nil {
		return nil, ml.ErrModelNotLoaded
	}
	average, err := ml.NormalizeAverage(opts.Average)
	if err != nil {
		return nil, err
	}
	schema := ml.WineSchema()
	if model.NumFeatures != schema.Len()-1 {
		return nil, fmt.Errorf("%w: model expects %d features, schema has %d", ml.ErrFeatureMismatch, model.NumFeatures, schema.Len()-1)
	}
	threshold := config.DefaultQualityThreshold
	if opts.QualityThreshold != nil {
		threshold = *opts.QualityThreshold
	}
	return &InferenceService{
		model:      model,
		modelPath:  opts.ModelPath,
		loadedAt:   time.Now().UTC(),
		schema:     schema,
		csvOptions: ml.WineCSVOptions(),
		threshold:  threshold,
		evaluator: ml.MulticlassEvaluator{
			LabelCol:      ml.ColQuality,
			PredictionCol: predictionCol,
			Average:       average,
		},
	}, nil
}

// LoadInferenceService 从 opts.ModelPath 加载模型
func LoadInferenceService(opts InferenceOptions) (*InferenceService, error) {
	logger := serviceLogger().With("service", "InferenceService", "method", "LoadInferenceService")
	start := time.Now()

	model, meta, err := ml.LoadRandomForestModel(opts.ModelPath)
	if err != nil {
		logger.Error("load model failed", "path", opts.ModelPath, "error", err)
		return nil, fmt.Errorf("load model from %s failed: %w", opts.ModelPath, err)
	}
	if meta != nil {
		logger.Info("model metadata", "format_version", meta.FormatVersion, "created_at", meta.CreatedAt)
	}

	svc, err := NewInferenceService(model, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded",
		"path", opts.ModelPath,
		"trees", len(model.Trees),
		"features", model.NumFeatures,
		"cost_ms", time.Since(start).Milliseconds(),
	)
	return svc, nil
}

// Evaluate 对上传到 path 的 CSV 打分
func (s *InferenceService) Evaluate(ctx context.Context, path string) (InferenceResult, error) {
	start := time.Now()
	frame, err := ml.ReadCSVFile(path, s.schema, s.csvOptions)
	if err != nil {
		return InferenceResult{}, err
	}
	return s.score(ctx, frame, start)
}

// EvaluateReader 同 Evaluate，数据来自 r
func (s *InferenceService) EvaluateReader(ctx context.Context, r io.Reader) (InferenceResult, error) {
	start := time.Now()
	frame, err := ml.ReadCSV(r, s.schema, s.csvOptions)
	if err != nil {
		return InferenceResult{}, err
	}
	return s.score(ctx, frame, start)
}

// score: 标签二值化 -> 特征组装 -> 预测 -> F1
func (s *InferenceService) score(ctx context.Context, frame *ml.Frame, start time.Time) (InferenceResult, error) {
	if err := ctx.Err(); err != nil {
		return InferenceResult{}, err
	}

	frame, err := ml.BinarizeLabel(frame, ml.ColQuality, s.threshold)
	if err != nil {
		return InferenceResult{}, err
	}

	// 除最后的 quality 外按位置取全部列
	columns := frame.Columns()
	assembler := ml.VectorAssembler{InputCols: columns[:len(columns)-1], OutputCol: featuresCol}
	frame, err = assembler.Transform(frame)
	if err != nil {
		return InferenceResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return InferenceResult{}, err
	}

	frame, err = s.model.Transform(frame, featuresCol, predictionCol)
	if err != nil {
		return InferenceResult{}, err
	}

	f1, err := s.evaluator.Evaluate(frame)
	if err != nil {
		return InferenceResult{}, err
	}

	labels, _ := frame.Column(ml.ColQuality)
	positives := 0
	for _, v := range labels {
		if v == 1 {
			positives++
		}
	}

	return InferenceResult{
		F1Score:   f1,
		Rows:      frame.Len(),
		Positives: positives,
		Average:   s.evaluator.Average,
		Duration:  time.Since(start),
	}, nil
}

// ModelInfo 返回当前模型的基本信息
func (s *InferenceService) ModelInfo() ModelInfo {
	return ModelInfo{
		Path:        s.modelPath,
		NumTrees:    len(s.model.Trees),
		NumFeatures: s.model.NumFeatures,
		Classes:     append([]int(nil), s.model.Classes...),
		Average:     s.evaluator.Average,
		Threshold:   s.threshold,
		LoadedAt:    s.loadedAt,
	}
}
