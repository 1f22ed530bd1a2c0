package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wine_inference/config"
	"wine_inference/dao"
	"wine_inference/service"
)

func handlerLogger() *slog.Logger {
	logger := config.EnsureLoggerInitialized()
	if logger == nil {
		return slog.Default().With("layer", "handler")
	}
	return logger.With("layer", "handler")
}

// writeHTTPError 区分客户端输入错误(4xx)与服务端错误(5xx)
func writeHTTPError(ctx *gin.Context, err error) {
	logger := handlerLogger().With(
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
	)

	switch {
	case service.IsBadInput(err), errors.Is(err, dao.ErrInvalidID):
		logger.Warn("request failed", "status", http.StatusBadRequest, "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.Warn("request failed", "status", http.StatusNotFound, "error", err)
		ctx.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	default:
		logger.Error("request failed", "status", http.StatusInternalServerError, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseUintPathParam(ctx *gin.Context, key string) (uint, error) {
	raw := strings.TrimSpace(ctx.Param(key))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}

	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned integer", key)
	}
	return uint(value), nil
}
