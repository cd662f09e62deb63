/**
 * 工具类:键级互斥锁
 * @description: 按字符串键粒度的互斥锁,保证同一逻辑资产的并发提交串行化
 * @func: Lock/Unlock
 */
package keymutex

import "sync"

// KeyMutex 键级互斥锁
// 同一个key上的 Lock 互相排斥,不同key互不影响。
// 锁条目带引用计数,最后一个持有者 Unlock 后条目从map中移除,
// 长期运行不会因为键空间增长而泄漏内存
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New 创建键级互斥锁
func New() *KeyMutex {
	return &KeyMutex{
		entries: make(map[string]*entry),
	}
}

// Lock 锁定指定key,已被持有时阻塞等待
func (km *KeyMutex) Lock(key string) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		e = &entry{}
		km.entries[key] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()
}

// Unlock 释放指定key
// 未持有的key调用Unlock会panic,与sync.Mutex语义一致
func (km *KeyMutex) Unlock(key string) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		km.mu.Unlock()
		panic("keymutex: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(km.entries, key)
	}
	km.mu.Unlock()

	e.mu.Unlock()
}

// Len 当前持有锁条目的数量(测试用)
func (km *KeyMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.entries)
}
