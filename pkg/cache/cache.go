package cache

import (
	"container/list"
	"sync"
	"time"
)

// デフォルト値の定義なのだ
const (
	// DefaultMaxSize はキャッシュが保持できるエントリ数の上限です。
	DefaultMaxSize = 100
	// DefaultTTL はエントリの有効期限です。ネットワーク往復の節約が目的なので
	// 長めに設定しています。
	DefaultTTL = time.Hour
)

// entry はキャッシュに格納される1件分のデータを保持します。
// 格納時刻は Set のたびに新しく記録され、上書きでも期限がリセットされます。
type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// Cache は TTL 付きの LRU キャッシュです。
// 挿入順と参照順を recency リストで管理し、容量超過時には
// 最も使われていないエントリを1件だけ追い出します。
// 並列バッチ実行から共有されるため、すべての操作はミューテックスで保護します。
type Cache[V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	ll      *list.List // 先頭が最近使用、末尾が追い出し候補
	items   map[string]*list.Element

	// now はテストから時刻を注入するためのフックです。
	now func() time.Time
}

// New は指定された容量と TTL で新しいキャッシュを生成します。
// 容量が0以下の場合はデフォルト値に丸めます。
func New[V any](maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		maxSize: maxSize,
		ttl:     ttl,
		ll:      list.New(),
		items:   make(map[string]*list.Element, maxSize),
		now:     time.Now,
	}
}

// Get はキーに対応する値を返し、ヒットしたエントリを最近使用位置へ昇格させます。
// 期限切れのエントリはこの読み取りのタイミングで削除します（遅延パージ）。
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := ele.Value.(*entry[V])
	if c.now().Sub(ent.storedAt) > c.ttl {
		c.removeElement(ele)
		return zero, false
	}

	c.ll.MoveToFront(ele)
	return ent.value, true
}

// Set は値を挿入または上書きします。容量を超える場合は、挿入の前に
// 最も使われていないエントリを1件追い出します。
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.items[key]; ok {
		// 上書きは丸ごと差し替え、期限も書き込み時刻でリセットするのだ
		ele.Value = &entry[V]{key: key, value: value, storedAt: c.now()}
		c.ll.MoveToFront(ele)
		return
	}

	if c.ll.Len() >= c.maxSize {
		if last := c.ll.Back(); last != nil {
			c.removeElement(last)
		}
	}

	ele := c.ll.PushFront(&entry[V]{key: key, value: value, storedAt: c.now()})
	c.items[key] = ele
}

// Clear はすべてのエントリを破棄します。
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.maxSize)
}

// Len は現在のエントリ数を返します。期限切れエントリは読み取りまで
// 残留するため、数に含まれることがあります。
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// removeElement はロック保持中に呼び出される内部ヘルパーです。
func (c *Cache[V]) removeElement(ele *list.Element) {
	c.ll.Remove(ele)
	delete(c.items, ele.Value.(*entry[V]).key)
}
