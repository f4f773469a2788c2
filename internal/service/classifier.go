package service

import (
	"sort"

	"MarsAI_Festival/internal/model"
)

const DefaultReviewThreshold = 3

type ReviewStats struct {
	TotalPending   int `json:"total_pending"`
	NeedsReview    int `json:"needs_review"`
	ReviewComplete int `json:"review_complete"`
}

type Classification struct {
	NeedsReview    []model.FilmSummary `json:"needsReview"`
	ReviewComplete []model.FilmSummary `json:"reviewComplete"`
	Stats          ReviewStats         `json:"stats"`
	Threshold      int                 `json:"threshold"`
}

// IsReviewComplete 评分数达到阈值即视为评审完成
func IsReviewComplete(ratingCount int64, threshold int) bool {
	return ratingCount >= int64(threshold)
}

// Classify 把待审影片按评分数分成待评和已评完两组。
// 待评组保持输入顺序（最新投稿在前），已评完组按平均分降序，平均分相同时按评分数降序。
func Classify(films []model.FilmSummary, threshold int) Classification {
	if threshold < 1 {
		threshold = DefaultReviewThreshold
	}
	out := Classification{
		NeedsReview:    []model.FilmSummary{},
		ReviewComplete: []model.FilmSummary{},
		Threshold:      threshold,
	}
	for _, f := range films {
		if IsReviewComplete(f.RatingCount, threshold) {
			out.ReviewComplete = append(out.ReviewComplete, f)
		} else {
			out.NeedsReview = append(out.NeedsReview, f)
		}
	}
	sort.SliceStable(out.ReviewComplete, func(i, j int) bool {
		a, b := out.ReviewComplete[i], out.ReviewComplete[j]
		av, bv := avgOrMin(a.AverageRating), avgOrMin(b.AverageRating)
		if av != bv {
			return av > bv
		}
		return a.RatingCount > b.RatingCount
	})
	out.Stats = ReviewStats{
		TotalPending:   len(films),
		NeedsReview:    len(out.NeedsReview),
		ReviewComplete: len(out.ReviewComplete),
	}
	return out
}

// 没有平均分的排在最后
func avgOrMin(avg *float64) float64 {
	if avg == nil {
		return -1
	}
	return *avg
}
