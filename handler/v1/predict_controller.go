package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"wine_inference/service"
)

type PredictController struct {
	predictionService *service.PredictionService
}

func NewPredictController(predictionService *service.PredictionService) *PredictController {
	return &PredictController{
		predictionService: predictionService,
	}
}

// Predict handles POST /predict
func (c *PredictController) Predict(ctx *gin.Context) {
	result, ok := c.run(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"f1_score": result.F1Score})
}

// PredictDetailed handles POST /v1/predict
func (c *PredictController) PredictDetailed(ctx *gin.Context) {
	result, ok := c.run(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *PredictController) run(ctx *gin.Context) (service.PredictionResult, bool) {
	// 在 gin 解析 multipart 之前限制请求体大小
	if limit := c.predictionService.Uploads.BodyLimit(); limit > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeHTTPError(ctx, fmt.Errorf("%w: request body exceeds %d bytes", service.ErrUploadTooLarge, tooLarge.Limit))
			return service.PredictionResult{}, false
		}
		// 缺少 file 字段或不是 multipart 请求
		writeHTTPError(ctx, fmt.Errorf("%w: %v", service.ErrInvalidUploadFile, err))
		return service.PredictionResult{}, false
	}

	result, err := c.predictionService.Predict(ctx.Request.Context(), file)
	if err != nil {
		writeHTTPError(ctx, err)
		return service.PredictionResult{}, false
	}
	return result, true
}
