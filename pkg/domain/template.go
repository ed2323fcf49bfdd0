package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TemplateDescriptor はミームテンプレート1種の描画規約を保持します。
type TemplateDescriptor struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"display_name"`
	LayoutConvention string   `json:"layout_convention"` // 整形プロンプトに注入するスロット規約の説明
	Topics           []string `json:"topics,omitempty"`  // 分類プロンプトでのマッチングの手掛かり
}

// GenericTemplateID は、分類器が未知のIDを返したときに使う汎用テンプレートのIDです。
const GenericTemplateID = "custom"

// genericDescriptor は未知IDの受け皿となる2スロットの汎用規約です。
// 分類は曖昧な自然言語処理なので、ここでエラーにせず常に整形を試みられる
// ようにします。
var genericDescriptor = TemplateDescriptor{
	ID:               GenericTemplateID,
	DisplayName:      "Generic two-slot",
	LayoutConvention: "part 1 / part 2, each part at most 35 characters",
}

// Registry はテンプレートIDから描画規約への読み取り専用マップです。
// キーは小文字へ正規化して保持します。
type Registry struct {
	templates map[string]TemplateDescriptor
}

// NewRegistry は与えられた記述子群からレジストリを生成します。
// 同じIDが複数回現れた場合は後勝ちです。
func NewRegistry(descriptors []TemplateDescriptor) *Registry {
	m := make(map[string]TemplateDescriptor, len(descriptors))
	for _, d := range descriptors {
		m[NormalizeTemplateID(d.ID)] = d
	}
	return &Registry{templates: m}
}

// Describe はIDに対応する記述子を返します。未知のIDは汎用記述子に
// フォールバックし、決してエラーにはなりません。
func (r *Registry) Describe(templateID string) TemplateDescriptor {
	if r == nil {
		return genericDescriptor
	}
	if d, ok := r.templates[NormalizeTemplateID(templateID)]; ok {
		return d
	}
	return genericDescriptor
}

// Known はIDがキュレーション済みテーブルに存在するかを返します。
func (r *Registry) Known(templateID string) bool {
	if r == nil {
		return false
	}
	_, ok := r.templates[NormalizeTemplateID(templateID)]
	return ok
}

// All はID順を保証しないコピーのスライスを返します。
// 内部マップが呼び出し元によって変更されるのを防ぐための防御的コピーです。
func (r *Registry) All() []TemplateDescriptor {
	out := make([]TemplateDescriptor, 0, len(r.templates))
	for _, d := range r.templates {
		out = append(out, d)
	}
	return out
}

// NormalizeTemplateID はテンプレートIDを小文字化・トリムし、
// 内部の空白をアンダースコアに置き換えます。
func NormalizeTemplateID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.Join(strings.Fields(id), "_")
}

// GetTemplates はJSONバイト列からテンプレート記述子のスライスをパースして返します。
// この関数はステートレスであり、キャッシュを行いません。
func GetTemplates(templatesJSON []byte) ([]TemplateDescriptor, error) {
	var descriptors []TemplateDescriptor
	if err := json.Unmarshal(templatesJSON, &descriptors); err != nil {
		return nil, fmt.Errorf("テンプレート情報のJSONパースに失敗しました: %w", err)
	}
	return descriptors, nil
}
