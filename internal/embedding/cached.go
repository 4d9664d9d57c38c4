package embedding

import (
	"context"
	"time"

	"StudyMate/pkg/util"
)

// CachedModel 在任意 Embedding 模型外包装一层 LRU 缓存。
// 查询文本经常重复出现（例如用户连续追问同一主题），缓存可以省去一次网络调用。
type CachedModel struct {
	inner Embedding
	cache *util.LRUCache[string, []float32]
}

// NewCachedModel 创建一个带查询缓存的 Embedding 模型。
// capacity 是缓存的最大条目数，ttl 是单个向量的存活时间。
func NewCachedModel(inner Embedding, capacity int, ttl time.Duration) (*CachedModel, error) {
	cache, err := util.NewWithConfig(util.CacheConfig[string, []float32]{
		Capacity: capacity,
		TTL:      ttl,
	})
	if err != nil {
		return nil, err
	}
	return &CachedModel{inner: inner, cache: cache}, nil
}

// Embed 优先从缓存返回向量，未命中时调用底层模型并回填。
func (m *CachedModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := m.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Put(text, vec, 1)
	return vec, nil
}

// EmbedBatch 直接透传给底层模型。批量嵌入只在离线入库时使用，不值得缓存。
func (m *CachedModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.inner.EmbedBatch(ctx, texts)
}

var _ Embedding = (*CachedModel)(nil)
