package snapshot

import (
	"sync"
	"time"
)

// Collector 内存中的观测值累加器，抓取协程并发写入，结束后 Freeze 成快照
type Collector struct {
	values map[string]int64
	failed map[string]error
	mu     sync.RWMutex
}

// NewCollector 创建累加器
func NewCollector() *Collector {
	return &Collector{
		values: make(map[string]int64),
		failed: make(map[string]error),
	}
}

// Add 记录一个城市的观测值（同一城市后写覆盖先写）
func (c *Collector) Add(key string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	delete(c.failed, key)
}

// AddReading 记录一次抓取结果，失败的抓取只记录错误
func (c *Collector) AddReading(r Reading) {
	if r.Err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.values[r.Key]; !ok {
			c.failed[r.Key] = r.Err
		}
		return
	}
	c.Add(r.Key, r.Value)
}

// Count 已记录的城市个数
func (c *Collector) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Failed 抓取失败的城市及原因
func (c *Collector) Failed() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]error, len(c.failed))
	for k, v := range c.failed {
		out[k] = v
	}
	return out
}

// Freeze 生成当前内容的不可变快照
func (c *Collector) Freeze(takenAt time.Time) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return New(takenAt, c.values)
}

// Clear 清空
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]int64)
	c.failed = make(map[string]error)
}
