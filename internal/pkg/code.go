package pkg

import (
	cryptoRand "crypto/rand"
	"math/big"
)

// SampleIndexes 从 [0,n) 中不放回地均匀抽取 k 个下标（部分 Fisher-Yates）。
// k 大于 n 时返回全部 n 个下标的随机排列。
func SampleIndexes(n, k int) ([]int, error) {
	if n <= 0 || k <= 0 {
		return []int{}, nil
	}
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, big.NewInt(int64(n-i)))
		if err != nil {
			return nil, err
		}
		j := i + int(x.Int64())
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k], nil
}

// Sample 不放回地均匀抽取 k 个元素
func Sample[T any](items []T, k int) ([]T, error) {
	picks, err := SampleIndexes(len(items), k)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(picks))
	for _, i := range picks {
		out = append(out, items[i])
	}
	return out, nil
}
