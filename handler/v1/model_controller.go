package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wine_inference/service"
)

type ModelController struct {
	inferenceService *service.InferenceService
}

func NewModelController(inferenceService *service.InferenceService) *ModelController {
	return &ModelController{
		inferenceService: inferenceService,
	}
}

// GetModel handles GET /v1/model
func (c *ModelController) GetModel(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.inferenceService.ModelInfo())
}
