package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const statsHashKey = "wine-inference:stats"

// 预测结果类型，redis 计数、metrics 标签共用
const (
	OutcomeSuccess  = "success"
	OutcomeBadInput = "bad_input"
	OutcomeError    = "error"
)

var ErrRedisNotInitialized = errors.New("redis client is not initialized")

type Stats struct {
	Total         int64    `json:"total"`
	Succeeded     int64    `json:"succeeded"`
	Rejected      int64    `json:"rejected"`
	Failed        int64    `json:"failed"`
	LastF1        *float64 `json:"last_f1"`
	LastRequestID string   `json:"last_request_id,omitempty"`
}

// StatsService 用一个 redis hash 保存预测计数
type StatsService struct {
	Client *redis.Client
}

func NewStatsService(client *redis.Client) *StatsService {
	return &StatsService{Client: client}
}

// Record 累加一次请求的计数，只有成功时才写入 f1
func (s *StatsService) Record(ctx context.Context, outcome, requestID string, f1 *float64) error {
	if s == nil || s.Client == nil {
		return ErrRedisNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	field := "failed"
	switch outcome {
	case OutcomeSuccess:
		field = "succeeded"
	case OutcomeBadInput:
		field = "rejected"
	}

	pipe := s.Client.TxPipeline()
	pipe.HIncrBy(ctx, statsHashKey, "total", 1)
	pipe.HIncrBy(ctx, statsHashKey, field, 1)
	if outcome == OutcomeSuccess && f1 != nil {
		pipe.HSet(ctx, statsHashKey,
			"last_f1", strconv.FormatFloat(*f1, 'g', -1, 64),
			"last_request_id", requestID,
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record stats failed (key=%s): %w", statsHashKey, err)
	}
	return nil
}

func (s *StatsService) Snapshot(ctx context.Context) (Stats, error) {
	if s == nil || s.Client == nil {
		return Stats{}, ErrRedisNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rawMap, err := s.Client.HGetAll(ctx, statsHashKey).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("hgetall %s failed: %w", statsHashKey, err)
	}

	stats := Stats{LastRequestID: rawMap["last_request_id"]}
	counters := map[string]*int64{
		"total":     &stats.Total,
		"succeeded": &stats.Succeeded,
		"rejected":  &stats.Rejected,
		"failed":    &stats.Failed,
	}
	for key, dst := range counters {
		raw := strings.TrimSpace(rawMap[key])
		if raw == "" {
			continue
		}
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Stats{}, fmt.Errorf("parse %s failed: %w", key, err)
		}
		*dst = value
	}
	if raw := strings.TrimSpace(rawMap["last_f1"]); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Stats{}, fmt.Errorf("parse last_f1 failed: %w", err)
		}
		stats.LastF1 = &value
	}
	return stats, nil
}
