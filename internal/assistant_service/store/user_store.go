package store

import (
	"context"
	"errors"
	"fmt"

	"StudyMate/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// defaultUsername 是匿名请求挂靠的内置账号。
const defaultUsername = "default"

// UserStore 负责用户账户及其留学背景档案的读写。
type UserStore struct {
	db *gorm.DB
}

// NewUserStore 创建 UserStore。
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// GetOrCreateDefaultUser 返回内置的默认用户，不存在时创建。
// 当前版本没有注册登录流程，所有会话都归属这个账号。
func (s *UserStore) GetOrCreateDefaultUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", defaultUsername).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询默认用户失败: %w", err)
	}

	user = models.User{
		Username: defaultUsername,
		FullName: "Default User",
		Status:   models.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("创建默认用户失败: %w", err)
	}
	return &user, nil
}

// GetByID 通过 ID 查找用户。
func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateBackground 更新用户的留学背景档案快照。
func (s *UserStore) UpdateBackground(ctx context.Context, id uint, background datatypes.JSON) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("background", background).Error
}
