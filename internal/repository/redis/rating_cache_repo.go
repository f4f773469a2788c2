package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"MarsAI_Festival/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	RatingSummaryTTL       = 10 * time.Minute
	RatingSummaryKeyPrefix = "rating:summary:film" // 缓存某部影片的平均分和评分数
)

type RatingCacheRepository struct {
	RDB *redis.Client
	ttl time.Duration
}

func NewRatingCacheRepository(rdb *redis.Client) *RatingCacheRepository {
	if rdb == nil {
		rdb = Client
	}
	return &RatingCacheRepository{RDB: rdb, ttl: RatingSummaryTTL}
}

func (r *RatingCacheRepository) key(filmID uint64) string {
	return fmt.Sprintf("%s:%d", RatingSummaryKeyPrefix, filmID)
}

// Get 第二个返回值表示是否命中
func (r *RatingCacheRepository) Get(ctx context.Context, filmID uint64) (model.RatingSummary, bool, error) {
	vals, err := r.RDB.HGetAll(ctx, r.key(filmID)).Result()
	if err != nil {
		return model.RatingSummary{}, false, err
	}
	cnt, ok := vals["count"]
	if !ok {
		return model.RatingSummary{}, false, nil
	}
	count, err := strconv.ParseInt(cnt, 10, 64)
	if err != nil {
		return model.RatingSummary{}, false, err
	}
	summary := model.RatingSummary{Count: count}
	// avg 为空串表示还没有评分
	if avg := vals["avg"]; avg != "" {
		f, err := strconv.ParseFloat(avg, 64)
		if err != nil {
			return model.RatingSummary{}, false, err
		}
		summary.Average = &f
	}
	return summary, true, nil
}

// Set 回填评分汇总
func (r *RatingCacheRepository) Set(ctx context.Context, filmID uint64, s model.RatingSummary) error {
	avg := ""
	if s.Average != nil {
		avg = strconv.FormatFloat(*s.Average, 'f', -1, 64)
	}
	k := r.key(filmID)
	_, err := r.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, "count", s.Count, "avg", avg)
		p.Expire(ctx, k, r.ttl)
		return nil
	})
	return err
}

// Invalidate 写评分后删除缓存，delay>0 时再异步删一次，抵消并发回填窗口
func (r *RatingCacheRepository) Invalidate(ctx context.Context, filmID uint64, delay ...time.Duration) error {
	key := r.key(filmID)
	if err := r.RDB.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = r.RDB.Del(context.Background(), key).Err()
		}()
	}
	return nil
}
