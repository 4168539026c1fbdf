package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/blues/tss/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 租约窗口
// Persistent 条目每次读写续期到 LeaseDuration；剩余时间不足
// LeaseThreshold 时才真正落一次更新，避免每次读都写库
const (
	LeaseDuration  = 30 * 24 * time.Hour
	LeaseThreshold = LeaseDuration - 24*time.Hour
)

// Store 两级键值存储访问器
// Instance 级存合约身份配置，永不过期；Persistent 级存记账数据，
// 带租约，过期条目按缺省值（零值）处理。
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore 创建存储访问器，db 可以是事务句柄
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// GetInstance 读取身份配置条目
func (s *Store) GetInstance(key string) (string, bool, error) {
	var entry model.StoreEntry
	err := s.db.Where("namespace = ? AND key = ?", model.NamespaceInstance, key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// SetInstance 写入身份配置条目
func (s *Store) SetInstance(key, value string) error {
	entry := model.StoreEntry{
		Namespace: model.NamespaceInstance,
		Key:       key,
		Value:     value,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// HasInstance 判断身份配置条目是否存在
func (s *Store) HasInstance(key string) (bool, error) {
	var count int64
	err := s.db.Model(&model.StoreEntry{}).
		Where("namespace = ? AND key = ?", model.NamespaceInstance, key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetInstanceUint64 读取身份配置整数，缺省为0
func (s *Store) GetInstanceUint64(key string) (uint64, error) {
	value, ok, err := s.GetInstance(key)
	if err != nil || !ok {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("存储条目 %s 不是合法整数: %w", key, err)
	}
	return v, nil
}

// SetInstanceUint64 写入身份配置整数
func (s *Store) SetInstanceUint64(key string, v uint64) error {
	return s.SetInstance(key, strconv.FormatUint(v, 10))
}

// GetInstanceJSON 读取身份配置结构体
func (s *Store) GetInstanceJSON(key string, out interface{}) (bool, error) {
	value, ok, err := s.GetInstance(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("存储条目 %s 反序列化失败: %w", key, err)
	}
	return true, nil
}

// SetInstanceJSON 写入身份配置结构体
func (s *Store) SetInstanceJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.SetInstance(key, string(data))
}

// GetPersistent 读取记账条目并续租
// 租约已过期的条目视同不存在
func (s *Store) GetPersistent(key string) (string, bool, error) {
	var entry model.StoreEntry
	err := s.db.Where("namespace = ? AND key = ?", model.NamespacePersistent, key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	now := s.now()
	if entry.ExpiresAt != nil && entry.ExpiresAt.Before(now) {
		return "", false, nil
	}

	if err := s.renewLease(&entry, now); err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// SetPersistent 写入记账条目，租约重置为完整窗口
func (s *Store) SetPersistent(key, value string) error {
	expires := s.now().Add(LeaseDuration)
	entry := model.StoreEntry{
		Namespace: model.NamespacePersistent,
		Key:       key,
		Value:     value,
		ExpiresAt: &expires,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
}

// GetPersistentUint64 读取记账整数，缺省为0
func (s *Store) GetPersistentUint64(key string) (uint64, error) {
	value, ok, err := s.GetPersistent(key)
	if err != nil || !ok {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("存储条目 %s 不是合法整数: %w", key, err)
	}
	return v, nil
}

// SetPersistentUint64 写入记账整数
func (s *Store) SetPersistentUint64(key string, v uint64) error {
	return s.SetPersistent(key, strconv.FormatUint(v, 10))
}

// GetPersistentAmount 读取金额，缺省为0
// 金额以十进制字符串存储，保留128位有符号整数的运算余量
func (s *Store) GetPersistentAmount(key string) (*big.Int, error) {
	value, ok, err := s.GetPersistent(key)
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	amount, valid := new(big.Int).SetString(value, 10)
	if !valid {
		return big.NewInt(0), fmt.Errorf("存储条目 %s 不是合法金额: %s", key, value)
	}
	return amount, nil
}

// SetPersistentAmount 写入金额
func (s *Store) SetPersistentAmount(key string, amount *big.Int) error {
	return s.SetPersistent(key, amount.String())
}

// renewLease 剩余租期低于阈值时续期到完整窗口
func (s *Store) renewLease(entry *model.StoreEntry, now time.Time) error {
	if entry.ExpiresAt != nil && entry.ExpiresAt.Sub(now) >= LeaseThreshold {
		return nil
	}
	expires := now.Add(LeaseDuration)
	entry.ExpiresAt = &expires
	return s.db.Model(&model.StoreEntry{}).
		Where("namespace = ? AND key = ?", entry.Namespace, entry.Key).
		Update("expires_at", expires).Error
}

// ExpiredKeys 返回至多limit个已过期的记账条目键，供清理任务使用
func (s *Store) ExpiredKeys(limit int) ([]string, error) {
	var keys []string
	err := s.db.Model(&model.StoreEntry{}).
		Where("namespace = ? AND expires_at IS NOT NULL AND expires_at < ?", model.NamespacePersistent, s.now()).
		Limit(limit).
		Pluck("key", &keys).Error
	return keys, err
}

// DeleteExpired 删除单个过期条目
// 带过期条件，避免误删清理途中被续租的条目
func (s *Store) DeleteExpired(key string) (bool, error) {
	result := s.db.Where("namespace = ? AND key = ? AND expires_at IS NOT NULL AND expires_at < ?",
		model.NamespacePersistent, key, s.now()).
		Delete(&model.StoreEntry{})
	return result.RowsAffected > 0, result.Error
}
