package kv

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memoryEntry 带过期时间的内存值，expireAt 为零值表示永不过期.
type memoryEntry struct {
	data     []byte
	expireAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期键在读取时惰性清理.
type MemoryKV struct {
	data sync.Map
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(ctx context.Context, config any) (KVStore, error) {
	// 内存实现不需要特殊配置
	return &MemoryKV{}, nil
}

// Get 获取键的值，过期键视为不存在并顺手删除.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, exists := m.data.Load(key)
	if !exists {
		return nil, fmt.Errorf("key not found: %s", key)
	}

	entry, ok := value.(memoryEntry)
	if !ok {
		return nil, fmt.Errorf("invalid value type for key: %s", key)
	}

	if entry.expired(time.Now()) {
		m.data.Delete(key)

		return nil, fmt.Errorf("key not found: %s", key)
	}

	// 返回副本
	result := make([]byte, len(entry.data))
	copy(result, entry.data)

	return result, nil
}

// Set 设置键的值，ttl>0 时记录过期时间.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{data: make([]byte, len(value))}
	copy(entry.data, value)

	if ttl > 0 {
		entry.expireAt = time.Now().Add(ttl)
	}

	m.data.Store(key, entry)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Exists 检查键是否存在且未过期.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	value, exists := m.data.Load(key)
	if !exists {
		return false, nil
	}

	if entry, ok := value.(memoryEntry); ok && entry.expired(time.Now()) {
		m.data.Delete(key)

		return false, nil
	}

	return true, nil
}

// Keys 获取所有未过期的键.
func (m *MemoryKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)
	now := time.Now()

	m.data.Range(func(key, value any) bool {
		k, ok := key.(string)
		if !ok {
			return true // 继续遍历
		}

		if entry, ok := value.(memoryEntry); ok && entry.expired(now) {
			m.data.Delete(key)

			return true
		}

		if pattern == "" || k == pattern {
			keys = append(keys, k)
		}

		return true
	})

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
