// Package memerr は、ミーム生成パイプライン全体で共有するエラー分類を定義します。
//
// 重要な設計契約: レートリミット系とAPIキー設定系のエラーは「クリティカル」で、
// どのレイヤーでも握りつぶさず呼び出し元までそのまま伝播させます。
// それ以外の失敗は回復可能で、画像リゾルバのプローブ段だけが
// プレースホルダー画像へのフォールバックに吸収します。
// 判定は発生地点のHTTPステータスコードで行い、エラーメッセージ文字列の
// 照合には一切依存しません。
package memerr

import "errors"

var (
	// ErrNoAPIKey はAPIキーが未設定であることを示します。再試行不可です。
	ErrNoAPIKey = errors.New("APIキーが設定されていません")

	// ErrInvalidAPIKey はAPIキーが形式チェックを通らないことを示します。再試行不可です。
	ErrInvalidAPIKey = errors.New("APIキーの形式が不正です")

	// ErrRateLimited はプロバイダまたは画像サービスが 429 を返したことを示します。
	// フォールバックに変換してはいけません。
	ErrRateLimited = errors.New("レートリミットに達しました")

	// ErrInvalidResponse はプロバイダ応答に候補テキストもエラーも含まれない状態です。
	ErrInvalidResponse = errors.New("プロバイダ応答を解釈できません")

	// ErrFormattingFailed はキャプション整形の失敗（セパレータ欠落など）を示します。
	ErrFormattingFailed = errors.New("キャプションの整形に失敗しました")

	// ErrClassificationFailed はテンプレート分類の失敗を示します。
	ErrClassificationFailed = errors.New("テンプレートの分類に失敗しました")

	// ErrTemplateUnavailable は画像プローブが 429 以外の失敗を返した状態です。
	// リゾルバ内でプレースホルダーに吸収され、呼び出し元へは出ません。
	ErrTemplateUnavailable = errors.New("テンプレート画像を利用できません")
)

// IsCritical は err がフォールバック吸収を許されない種別かどうかを返します。
func IsCritical(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrNoAPIKey) ||
		errors.Is(err, ErrInvalidAPIKey)
}
