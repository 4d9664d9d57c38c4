package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StudyMate/internal/models"
	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// cachedTurn 是写入 Redis 列表的精简消息形式。
type cachedTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatStore 负责聊天历史的持久化与缓存。
// MySQL 是事实来源，Redis 按 (用户, 会话) 维护一个写穿的最近消息列表，
// 读历史时优先走缓存。缓存故障只降级为回源读库，不影响写入结果。
type ChatStore struct {
	db       *gorm.DB
	cache    *redis.Client
	cacheTTL time.Duration
	window   int
	log      *logger.Logger
}

// NewChatStore 创建 ChatStore。cache 可以为 nil，此时所有读写都直达 MySQL。
// window 是缓存保留的最近消息条数。
func NewChatStore(db *gorm.DB, cache *redis.Client, cacheTTL time.Duration, window int, log *logger.Logger) *ChatStore {
	if window <= 0 {
		window = 10
	}
	return &ChatStore{db: db, cache: cache, cacheTTL: cacheTTL, window: window, log: log}
}

// Append 先落库，再把消息追加到对应会话的缓存列表并裁剪到窗口大小。
func (s *ChatStore) Append(ctx context.Context, msg *models.ChatMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("保存聊天消息失败: %w", err)
	}

	if s.cache == nil {
		return nil
	}
	key := s.historyKey(msg.UserID, msg.SessionID)
	payload, err := json.Marshal(cachedTurn{Role: msg.Role, Content: msg.Content, Timestamp: msg.Timestamp})
	if err != nil {
		return nil
	}
	pipe := s.cache.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.window), -1)
	pipe.Expire(ctx, key, s.cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn(fmt.Sprintf("聊天历史缓存写入失败: %v", err))
	}
	return nil
}

// RecentMessages 返回会话最近 limit 条消息，按时间升序。
// 缓存命中时直接反序列化列表，否则回源 MySQL。
func (s *ChatStore) RecentMessages(ctx context.Context, userID uint, sessionID string, limit int) ([]schema.ConversationTurn, error) {
	if limit <= 0 {
		return []schema.ConversationTurn{}, nil
	}

	if s.cache != nil {
		if turns, ok := s.recentFromCache(ctx, userID, sessionID, limit); ok {
			return turns, nil
		}
	}

	var rows []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("读取聊天历史失败: %w", err)
	}

	// 查询按时间倒序取最近 N 条，这里翻回升序。
	turns := make([]schema.ConversationTurn, len(rows))
	for i, row := range rows {
		turns[len(rows)-1-i] = schema.ConversationTurn{
			Role:      schema.Role(row.Role),
			Content:   row.Content,
			Timestamp: row.Timestamp,
		}
	}
	return turns, nil
}

// DeleteSession 删除一个会话的全部消息及其缓存。
func (s *ChatStore) DeleteSession(ctx context.Context, userID uint, sessionID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&models.ChatMessage{}).Error
	if err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, s.historyKey(userID, sessionID)).Err(); err != nil {
			s.log.Warn(fmt.Sprintf("删除会话缓存失败: %v", err))
		}
	}
	return nil
}

func (s *ChatStore) recentFromCache(ctx context.Context, userID uint, sessionID string, limit int) ([]schema.ConversationTurn, bool) {
	raw, err := s.cache.LRange(ctx, s.historyKey(userID, sessionID), int64(-limit), -1).Result()
	if err != nil || len(raw) == 0 {
		if err != nil && err != redis.Nil {
			s.log.Warn(fmt.Sprintf("聊天历史缓存读取失败: %v", err))
		}
		return nil, false
	}

	turns := make([]schema.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn cachedTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, false
		}
		turns = append(turns, schema.ConversationTurn{
			Role:      schema.Role(turn.Role),
			Content:   turn.Content,
			Timestamp: turn.Timestamp,
		})
	}
	return turns, true
}

func (s *ChatStore) historyKey(userID uint, sessionID string) string {
	return fmt.Sprintf("chat:history:%d:%s", userID, sessionID)
}
