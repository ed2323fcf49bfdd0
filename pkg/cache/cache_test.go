package cache

import (
	"sync"
	"testing"
	"time"
)

// newTestCache は時刻を手動で進められるキャッシュを作るヘルパーなのだ。
func newTestCache[V any](maxSize int, ttl time.Duration) (*Cache[V], *time.Time) {
	c := New[V](maxSize, ttl)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_GetSet(t *testing.T) {
	t.Run("Setした直後のGetは値を返すのだ", func(t *testing.T) {
		c, _ := newTestCache[string](10, time.Hour)
		c.Set("k", "v")

		got, ok := c.Get("k")
		if !ok || got != "v" {
			t.Errorf("期待した値が取れないのだ: got=%q ok=%v", got, ok)
		}
	})

	t.Run("存在しないキーはヒットしないのだ", func(t *testing.T) {
		c, _ := newTestCache[string](10, time.Hour)
		if _, ok := c.Get("nothing"); ok {
			t.Error("未登録キーでヒットしてはいけないのだ")
		}
	})
}

func TestCache_TTL(t *testing.T) {
	t.Run("TTLを超えたエントリは読み取り時に消えるのだ", func(t *testing.T) {
		c, now := newTestCache[string](10, time.Hour)
		c.Set("k", "v")

		*now = now.Add(time.Hour + time.Second)

		if _, ok := c.Get("k"); ok {
			t.Error("期限切れエントリが返ってきてしまったのだ")
		}
		if c.Len() != 0 {
			t.Errorf("遅延パージで削除されるはずなのだ: len=%d", c.Len())
		}
	})

	t.Run("上書きSetは期限をリセットするのだ", func(t *testing.T) {
		c, now := newTestCache[string](10, time.Hour)
		c.Set("k", "old")

		*now = now.Add(50 * time.Minute)
		c.Set("k", "new")

		// 最初のSetからは1時間超だが、上書きからは20分しか経っていない
		*now = now.Add(20 * time.Minute)

		got, ok := c.Get("k")
		if !ok || got != "new" {
			t.Errorf("上書き後のエントリが生きているべきなのだ: got=%q ok=%v", got, ok)
		}
	})
}

func TestCache_Capacity(t *testing.T) {
	t.Run("容量超過でちょうど1件だけ追い出すのだ", func(t *testing.T) {
		c, _ := newTestCache[int](3, time.Hour)
		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("c", 3)
		c.Set("d", 4)

		if c.Len() != 3 {
			t.Fatalf("容量を守れていないのだ: len=%d", c.Len())
		}
		if _, ok := c.Get("a"); ok {
			t.Error("最も古い a が追い出されるべきなのだ")
		}
		for _, k := range []string{"b", "c", "d"} {
			if _, ok := c.Get(k); !ok {
				t.Errorf("%s は残っているべきなのだ", k)
			}
		}
	})

	t.Run("Getで昇格したエントリは追い出されないのだ", func(t *testing.T) {
		c, _ := newTestCache[int](2, time.Hour)
		c.Set("a", 1)
		c.Set("b", 2)

		// a を最近使用に昇格させてから c を入れると、犠牲になるのは b なのだ
		if _, ok := c.Get("a"); !ok {
			t.Fatal("a がヒットしないのだ")
		}
		c.Set("c", 3)

		if _, ok := c.Get("b"); ok {
			t.Error("b が追い出されているべきなのだ")
		}
		if _, ok := c.Get("a"); !ok {
			t.Error("昇格した a は生き残るべきなのだ")
		}
	})
}

func TestCache_Clear(t *testing.T) {
	c, _ := newTestCache[string](10, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Clear後は空のはずなのだ: len=%d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Clear後にヒットしてはいけないのだ")
	}
}

func TestCache_Concurrent(t *testing.T) {
	// バッチ生成の並列実行を想定した競合テストなのだ。
	// go test -race で順序やサイズの不変条件が壊れないことを確認する。
	c := New[int](8, time.Hour)
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := keys[(seed+i)%len(keys)]
				c.Set(k, i)
				c.Get(k)
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > 8 {
		t.Errorf("並列実行後も容量制限は守られるべきなのだ: len=%d", c.Len())
	}
}
