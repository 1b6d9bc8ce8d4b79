// Package snapshot 汇总一次抓取周期内各城市的观测值，并以不可变快照的形式交给下游。
package snapshot

import (
	"sort"
	"time"
)

// Reading 单个城市的一次观测
type Reading struct {
	Key       string
	Value     int64
	Err       error
	FetchedAt time.Time
}

// Snapshot 一次刷新周期的观测值集合，创建后不可修改
type Snapshot struct {
	ID      string
	TakenAt time.Time

	values map[string]int64
}

// New 创建快照，values 会被复制
func New(takenAt time.Time, values map[string]int64) Snapshot {
	cp := make(map[string]int64, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Snapshot{TakenAt: takenAt, values: cp}
}

// Value 返回城市的观测值，未观测到时 ok=false
func (s Snapshot) Value(key string) (int64, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Get 返回城市的观测值，缺失按 0 处理
func (s Snapshot) Get(key string) int64 {
	return s.values[key]
}

// Len 已观测的城市个数
func (s Snapshot) Len() int {
	return len(s.values)
}

// Keys 已观测的城市规范名（排序后）
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values 返回观测值副本
func (s Snapshot) Values() map[string]int64 {
	cp := make(map[string]int64, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}

// With 返回叠加了 overrides 的新快照，原快照不变
func (s Snapshot) With(overrides map[string]int64) Snapshot {
	merged := s.Values()
	for k, v := range overrides {
		merged[k] = v
	}
	out := New(s.TakenAt, merged)
	out.ID = s.ID
	return out
}
