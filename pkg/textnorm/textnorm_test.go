package textnorm

import "testing"

func TestDecodeHTMLEntities(t *testing.T) {
	t.Run("既知のエンティティは文字に戻すのだ", func(t *testing.T) {
		got := DecodeHTMLEntities("&quot;cat&quot; &amp; dog &lt;3&gt;&nbsp;ok")
		want := `"cat" & dog <3> ok`
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("数値参照も同じ扱いなのだ", func(t *testing.T) {
		got := DecodeHTMLEntities("&#34;a&#34; &#38; b")
		if got != `"a" & b` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("未知のエンティティは削除するのだ", func(t *testing.T) {
		got := DecodeHTMLEntities("a&mdash;b &copy;2026")
		if got != "ab 2026" {
			t.Errorf("未知エンティティは消えるはずなのだ: got %q", got)
		}
	})
}

func TestRemoveEmojis(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"顔文字ブロック", "funny \U0001F602 cat", "funny  cat"},
		{"記号ブロック", "sun ☀ and check ✔ done", "sun  and check  done"},
		{"絵文字なしはそのまま", "plain text", "plain text"},
		{"非ASCII文字は残すのだ", "café naïve", "café naïve"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RemoveEmojis(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Run("記号除去と空白の畳み込みなのだ", func(t *testing.T) {
		got := Sanitize("  *bold*   #tag   @user  hello ")
		if got != "bold tag user hello" {
			t.Errorf("got %q", got)
		}
	})
}

func TestClean(t *testing.T) {
	got := Clean("when you \U0001F602  *ship*   on friday")
	if got != "when you ship on friday" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeQuotes(t *testing.T) {
	got := NormalizeQuotes("“it’s fine”…")
	if got != `"it's fine"...` {
		t.Errorf("got %q", got)
	}
}

func TestURLSlot(t *testing.T) {
	t.Run("空白はアンダースコアになるのだ", func(t *testing.T) {
		if got := URLSlot("hello   brave world"); got != "hello_brave_world" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("危険文字は除去されるのだ", func(t *testing.T) {
		if got := URLSlot(`a<b>"c{d}|e\f^g` + "`h"); got != "abcdefgh" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("非ASCII文字は削除せずエンコードするのだ", func(t *testing.T) {
		got := URLSlot("café")
		if got != "caf%C3%A9" {
			t.Errorf("got %q", got)
		}
	})
}
