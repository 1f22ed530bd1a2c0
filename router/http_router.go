package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	v1 "wine_inference/handler/v1"
	"wine_inference/service"
)

// Dependencies are built once in main and shared by every request.
type Dependencies struct {
	Prediction  *service.PredictionService
	Inference   *service.InferenceService
	Evaluations *service.EvaluationService
	Stats       *service.StatsService
	Metrics     *service.Metrics
}

func SetupRouter(deps Dependencies) *gin.Engine {
	predictController := v1.NewPredictController(deps.Prediction)
	evaluationController := v1.NewEvaluationController(deps.Evaluations)
	statsController := v1.NewStatsController(deps.Stats)
	modelController := v1.NewModelController(deps.Inference)

	r := gin.Default()
	r.Use(cors.Default())
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 原始接口，只返回 f1_score
	r.POST("/predict", predictController.Predict)

	v1Group := r.Group("/v1")
	{
		v1Group.POST("/predict", predictController.PredictDetailed)
		v1Group.GET("/model", modelController.GetModel)
		v1Group.GET("/stats", statsController.GetStats)

		evaluations := v1Group.Group("/evaluations")
		{
			evaluations.GET("", evaluationController.ListEvaluations)
			evaluations.GET("/:id", evaluationController.GetEvaluation)
		}
	}

	return r
}

func metricsMiddleware(metrics *service.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveRequest(path, ctx.Request.Method, ctx.Writer.Status(), time.Since(start))
	}
}
