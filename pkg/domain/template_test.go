package domain

import (
	"reflect"
	"testing"
)

func TestRegistry_Describe(t *testing.T) {
	t.Run("既知のIDは記述子を返すのだ", func(t *testing.T) {
		r := DefaultRegistry()
		d := r.Describe("drake")
		if d.ID != "drake" || d.LayoutConvention == "" {
			t.Errorf("drakeの記述子が取れないのだ: %+v", d)
		}
	})

	t.Run("大文字や前後の空白は無視されるのだ", func(t *testing.T) {
		r := DefaultRegistry()
		if d := r.Describe("  Drake "); d.ID != "drake" {
			t.Errorf("正規化が効いていないのだ: %+v", d)
		}
	})

	t.Run("未知のIDは汎用記述子に倒れるのだ", func(t *testing.T) {
		r := DefaultRegistry()
		d := r.Describe("totally-unknown-template")
		if d.ID != GenericTemplateID {
			t.Errorf("汎用フォールバックが返るべきなのだ: %+v", d)
		}
		if d.LayoutConvention == "" {
			t.Error("汎用記述子にも規約文は必要なのだ")
		}
	})

	t.Run("nilレジストリでも落ちないのだ", func(t *testing.T) {
		var r *Registry
		if d := r.Describe("drake"); d.ID != GenericTemplateID {
			t.Errorf("nilレジストリは常に汎用なのだ: %+v", d)
		}
	})
}

func TestNormalizeTemplateID(t *testing.T) {
	cases := map[string]string{
		"Drake":          "drake",
		"  CMM  ":        "cmm",
		"change my mind": "change_my_mind",
		"two   buttons":  "two_buttons",
		"already_normal": "already_normal",
	}
	for in, want := range cases {
		if got := NormalizeTemplateID(in); got != want {
			t.Errorf("NormalizeTemplateID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTemplates(t *testing.T) {
	t.Run("JSONから記述子を読み込めるのだ", func(t *testing.T) {
		data := []byte(`[
			{"id": "mb", "display_name": "Megamind", "layout_convention": "no caption? / no caption", "topics": ["absence"]}
		]`)
		descriptors, err := GetTemplates(data)
		if err != nil {
			t.Fatalf("パース失敗なのだ: %v", err)
		}

		want := []TemplateDescriptor{{
			ID:               "mb",
			DisplayName:      "Megamind",
			LayoutConvention: "no caption? / no caption",
			Topics:           []string{"absence"},
		}}
		if !reflect.DeepEqual(descriptors, want) {
			t.Errorf("変換結果が一致しないのだ。期待: %+v, 実際: %+v", want, descriptors)
		}
	})

	t.Run("壊れたJSONはエラーなのだ", func(t *testing.T) {
		if _, err := GetTemplates([]byte(`{not json`)); err == nil {
			t.Error("エラーが返るべきなのだ")
		}
	})
}

func TestFormattedCaption_String(t *testing.T) {
	if got := (FormattedCaption{TopText: "a", BottomText: "b"}).String(); got != "a / b" {
		t.Errorf("got %q", got)
	}
	if got := (FormattedCaption{BottomText: "solo"}).String(); got != "solo" {
		t.Errorf("単一スロットはそのまま返すべきなのだ: %q", got)
	}
}
