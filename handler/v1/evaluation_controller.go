package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wine_inference/entity"
	"wine_inference/service"
)

type EvaluationController struct {
	evaluationService *service.EvaluationService
}

func NewEvaluationController(evaluationService *service.EvaluationService) *EvaluationController {
	return &EvaluationController{
		evaluationService: evaluationService,
	}
}

// ListEvaluations handles GET /v1/evaluations
func (c *EvaluationController) ListEvaluations(ctx *gin.Context) {
	var params entity.QueryParams
	if err := ctx.ShouldBindQuery(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.evaluationService.List(ctx.Request.Context(), params)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetEvaluation handles GET /v1/evaluations/:id
func (c *EvaluationController) GetEvaluation(ctx *gin.Context) {
	id, err := parseUintPathParam(ctx, "id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := c.evaluationService.Get(ctx.Request.Context(), id)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, record)
}
