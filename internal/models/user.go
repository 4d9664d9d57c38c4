package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserStatus 定义了用户账户的生命周期状态。
type UserStatus string

const (
	StatusActive      UserStatus = "active"      // 账号正常
	StatusDeactivated UserStatus = "deactivated" // 账号已停用
)

// User 代表系统中的一个用户账户。
// 留学助手当前没有完整的注册流程，未登录的请求会挂在默认用户下。
type User struct {
	gorm.Model

	Username string `gorm:"unique;not null"`
	FullName string `gorm:"size:255"`
	Email    string `gorm:"uniqueIndex"`

	Status UserStatus `gorm:"type:varchar(20);default:'active';not null"`

	// Background 保存用户的留学背景档案（国籍、学历、GPA、预算等），
	// 用于奖学金匹配分析，结构不固定所以存成 JSON。
	Background datatypes.JSON
}

func (User) TableName() string {
	return "users"
}
