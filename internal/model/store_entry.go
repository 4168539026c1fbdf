package model

import (
	"time"
)

// 存储层命名空间
const (
	// NamespaceInstance 合约身份配置，永不过期
	NamespaceInstance = "instance"
	// NamespacePersistent 记账数据，带租约，需定期续期
	NamespacePersistent = "persistent"
)

// StoreEntry 持久化键值条目
// Instance 命名空间的条目 ExpiresAt 为空；Persistent 命名空间的条目
// 每次读写都会把租约续到固定窗口，过期后按缺省值处理。
type StoreEntry struct {
	Namespace string     `json:"namespace" gorm:"primaryKey;size:16"`
	Key       string     `json:"key" gorm:"primaryKey;size:256"`
	Value     string     `json:"value" gorm:"type:text;not null"`
	ExpiresAt *time.Time `json:"expires_at" gorm:"index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
