package v1_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wine_inference/entity"
	"wine_inference/service"
)

func TestEvaluationAPI(t *testing.T) {
	w := performMultipartRequest(t, testRouter, "/v1/predict", "file", "history.csv", wineCSV(wineRow(13.0, 8)))
	require.Equal(t, http.StatusOK, w.Code)
	var created service.PredictionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	var id uint
	// 1. 分页查询
	t.Run("List Evaluations", func(t *testing.T) {
		w := performRequest(testRouter, http.MethodGet, "/v1/evaluations?page=1&page_size=5&status=1&min_f1=0.5", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var result struct {
			Total int64                     `json:"total"`
			List  []entity.EvaluationRecord `json:"list"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Total >= 1)
		assert.LessOrEqual(t, len(result.List), 5)
		for _, record := range result.List {
			assert.Equal(t, entity.EvaluationStatusSucceeded, record.Status)
			if record.RequestID == created.RequestID {
				id = record.ID
			}
		}
	})

	// 2. 单条查询
	t.Run("Get Evaluation", func(t *testing.T) {
		require.NotZero(t, id)
		w := performRequest(testRouter, http.MethodGet, fmt.Sprintf("/v1/evaluations/%d", id), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var record entity.EvaluationRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
		assert.Equal(t, created.RequestID, record.RequestID)
		assert.Equal(t, "history.csv", record.FileName)
	})

	// 3. 不存在 / 非法 ID
	t.Run("Not Found", func(t *testing.T) {
		w := performRequest(testRouter, http.MethodGet, "/v1/evaluations/999999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = performRequest(testRouter, http.MethodGet, "/v1/evaluations/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = performRequest(testRouter, http.MethodGet, "/v1/evaluations/0", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	// 4. 查询参数类型错误
	t.Run("Bad Query", func(t *testing.T) {
		w := performRequest(testRouter, http.MethodGet, "/v1/evaluations?min_f1=high", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatsAPI(t *testing.T) {
	before := getStats(t)

	w := performMultipartRequest(t, testRouter, "/predict", "file", "stats.csv", wineCSV(wineRow(9.0, 5)))
	require.Equal(t, http.StatusOK, w.Code)
	w = performMultipartRequest(t, testRouter, "/predict", "file", "stats.csv", []byte("only;two\n1;2\n"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	after := getStats(t)
	assert.Equal(t, before.Total+2, after.Total)
	assert.Equal(t, before.Succeeded+1, after.Succeeded)
	assert.Equal(t, before.Rejected+1, after.Rejected)
	require.NotNil(t, after.LastF1)
	assert.Equal(t, 1.0, *after.LastF1)
}

func getStats(t *testing.T) service.Stats {
	t.Helper()
	w := performRequest(testRouter, http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats service.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	return stats
}

func TestModelAPI(t *testing.T) {
	w := performRequest(testRouter, http.MethodGet, "/v1/model", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info service.ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "/app/trainingweights", info.Path)
	assert.Equal(t, 5, info.NumTrees)
	assert.Equal(t, 11, info.NumFeatures)
	assert.Equal(t, "weighted", info.Average)
}

func TestHealthAndMetricsAPI(t *testing.T) {
	w := performRequest(testRouter, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(testRouter, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wine_http_requests_total{method="GET",path="/health",status="200"}`)
}

func TestPredictRejectsGet(t *testing.T) {
	w := performRequest(testRouter, http.MethodGet, "/predict", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
