// Package city 维护被跟踪城市的固定名册，以及规范名与显示名之间的双向转换。
package city

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// UnknownGroupSize 名册末尾属于“未知组”的城市个数
const UnknownGroupSize = 2

// City 被跟踪的城市
type City struct {
	Key  string `toml:"key" json:"key"`   // 规范名（机器名），如 Beijing
	Name string `toml:"name" json:"name"` // 显示名，如 北京
	URL  string `toml:"url" json:"url,omitempty"`
}

// Roster 有序、不可变的城市名册
type Roster struct {
	cities []City

	byKey  map[string]string
	byName map[string]string
}

// NewRoster 构建名册，顺序即表格中行的顺序
func NewRoster(cities []City) (*Roster, error) {
	if len(cities) <= UnknownGroupSize {
		return nil, fmt.Errorf("roster needs more than %d cities, got %d", UnknownGroupSize, len(cities))
	}

	r := &Roster{
		cities: make([]City, len(cities)),
		byKey:  make(map[string]string, len(cities)),
		byName: make(map[string]string, len(cities)),
	}
	copy(r.cities, cities)

	for _, c := range r.cities {
		if err := validateToken(c.Key); err != nil {
			return nil, fmt.Errorf("city key %q: %w", c.Key, err)
		}
		if err := validateToken(c.Name); err != nil {
			return nil, fmt.Errorf("city name %q: %w", c.Name, err)
		}
		if _, dup := r.byKey[c.Key]; dup {
			return nil, fmt.Errorf("duplicate city key: %s", c.Key)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate city name: %s", c.Name)
		}
		r.byKey[c.Key] = c.Name
		r.byName[c.Name] = c.Key
	}
	return r, nil
}

// MustRoster 与 NewRoster 相同，出错时 panic（仅用于默认名册与测试）
func MustRoster(cities []City) *Roster {
	r, err := NewRoster(cities)
	if err != nil {
		panic(err)
	}
	return r
}

// 名字会作为表格行的首个 token，不能含空白
func validateToken(s string) error {
	if s == "" {
		return errors.New("empty")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.New("contains whitespace")
	}
	return nil
}

// ToDisplay 规范名 -> 显示名，未知时返回空串
func (r *Roster) ToDisplay(key string) string {
	return r.byKey[key]
}

// ToCanonical 显示名 -> 规范名，未知时返回空串
func (r *Roster) ToCanonical(name string) string {
	return r.byName[name]
}

// Len 城市个数
func (r *Roster) Len() int {
	return len(r.cities)
}

// Cities 返回名册副本
func (r *Roster) Cities() []City {
	out := make([]City, len(r.cities))
	copy(out, r.cities)
	return out
}

// Known 已知组：除末尾 UnknownGroupSize 个以外的城市
func (r *Roster) Known() []City {
	n := len(r.cities) - UnknownGroupSize
	out := make([]City, n)
	copy(out, r.cities[:n])
	return out
}

// Unknown 未知组：名册末尾的城市，数据源通常取不到它们的数值
func (r *Roster) Unknown() []City {
	n := len(r.cities) - UnknownGroupSize
	out := make([]City, UnknownGroupSize)
	copy(out, r.cities[n:])
	return out
}
