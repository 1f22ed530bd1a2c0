package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"wine_inference/config"
	"wine_inference/dao"
	"wine_inference/infrastructure/db"
	"wine_inference/router"
	"wine_inference/service"
)

func main() {
	// 默认使用 release，避免线上以 debug 模式启动
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Initialize configuration and logger
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Init config failed: %v", err)
	}
	logger := config.InitLogger()
	cfg := config.AppConfig

	// 2. Initialize database (optional)
	var evaluationDAO *dao.EvaluationDAO
	gdb, err := db.InitDB()
	switch {
	case errors.Is(err, db.ErrDBDisabled):
		logger.Warn("evaluation history disabled: db driver is empty")
	case err != nil:
		log.Fatalf("Init database failed: %v", err)
	default:
		evaluationDAO = dao.NewEvaluationDAO(gdb)
	}

	// 3. Initialize redis (optional)
	var stats *service.StatsService
	redisClient, err := config.InitRedis()
	switch {
	case errors.Is(err, config.ErrRedisDisabled):
		logger.Warn("prediction stats disabled: redis host is empty")
	case err != nil:
		log.Fatalf("Init redis failed: %v", err)
	default:
		stats = service.NewStatsService(redisClient)
		defer config.CloseRedis()
	}

	// 4. Pull and load the model
	if cfg.Model.Remote.Enabled {
		if _, err := service.NewModelSyncService(cfg.Model.Remote, cfg.Model.Path).Sync(); err != nil {
			log.Fatalf("Sync model failed: %v", err)
		}
	}
	inference, err := service.LoadInferenceService(service.InferenceOptions{
		Average:          cfg.Evaluation.F1Average,
		QualityThreshold: cfg.Evaluation.QualityThreshold,
		ModelPath:        cfg.Model.Path,
	})
	if err != nil {
		log.Fatalf("Load model failed: %v", err)
	}

	// 5. Assemble services
	metrics := service.NewMetrics()
	prediction := &service.PredictionService{
		Uploads:   service.NewUploadService(cfg.Server.UploadDir, cfg.Server.MaxUploadMB<<20),
		Inference: inference,
		Metrics:   metrics,
	}
	if evaluationDAO != nil {
		prediction.Recorder = evaluationDAO
	}
	if stats != nil {
		prediction.Stats = stats
	}
	if cfg.Archive.Bucket != "" {
		archive, err := service.NewArchiveService(cfg.Archive)
		if err != nil {
			log.Fatalf("Init upload archive failed: %v", err)
		}
		prediction.Archiver = archive
	}

	// 6. Setup router
	r := router.SetupRouter(router.Dependencies{
		Prediction:  prediction,
		Inference:   inference,
		Evaluations: service.NewEvaluationService(evaluationDAO),
		Stats:       stats,
		Metrics:     metrics,
	})
	r.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	// 7. Start server
	port := cfg.Server.Port
	logger.Info("server starting", "port", port, "model_path", cfg.Model.Path, "f1_average", cfg.Evaluation.F1Average)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Server run failed: %v", err)
	}
}
