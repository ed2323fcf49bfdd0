package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/gemini"
	"github.com/shouni/go-meme-kit/pkg/memerr"
)

// fakeModel は呼び出し内容を記録する GenerativeModel のテストダブルなのだ。
type fakeModel struct {
	response       string
	err            error
	calls          int
	lastPrompt     string
	lastOptionsLen int
}

func (m *fakeModel) GenerateContent(ctx context.Context, prompt string, opts ...gemini.GenerateOption) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastOptionsLen = len(opts)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestClassifier(t *testing.T, model gemini.GenerativeModel) *Classifier {
	t.Helper()
	cl, err := New(model, domain.DefaultRegistry())
	if err != nil {
		t.Fatalf("Classifierの初期化に失敗したのだ: %v", err)
	}
	return cl
}

func TestClassifier_Classify(t *testing.T) {
	t.Run("応答からIDを取り出すのだ", func(t *testing.T) {
		model := &fakeModel{response: " Drake.\nbecause it fits"}
		cl := newTestClassifier(t, model)

		got, err := cl.Classify(context.Background(), "tabs or spaces", 0)
		if err != nil {
			t.Fatalf("成功するべきなのだ: %v", err)
		}
		if got != "drake" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("同じテキストの2回目はキャッシュで返すのだ", func(t *testing.T) {
		model := &fakeModel{response: "fine"}
		cl := newTestClassifier(t, model)

		cl.Classify(context.Background(), "prod is down", 0)
		cl.Classify(context.Background(), "prod is down", 0)

		if model.calls != 1 {
			t.Errorf("プロバイダ呼び出しは1回のはずなのだ: calls=%d", model.calls)
		}
	})

	t.Run("再生成は常にプロバイダを呼ぶのだ", func(t *testing.T) {
		model := &fakeModel{response: "fine"}
		cl := newTestClassifier(t, model)

		cl.Classify(context.Background(), "prod is down", 0)
		cl.Classify(context.Background(), "prod is down", 1)
		cl.Classify(context.Background(), "prod is down", 2)

		if model.calls != 3 {
			t.Errorf("再生成はキャッシュを迂回するべきなのだ: calls=%d", model.calls)
		}
	})

	t.Run("再生成の結果はキャッシュに書かれないのだ", func(t *testing.T) {
		model := &fakeModel{response: "fine"}
		cl := newTestClassifier(t, model)

		cl.Classify(context.Background(), "prod is down", 7)
		cl.Classify(context.Background(), "prod is down", 0)

		// 再生成で書き込まれていたら2回目はキャッシュヒットで calls=1 のままになる
		if model.calls != 2 {
			t.Errorf("variantSeed=0の呼び出しはミスになるべきなのだ: calls=%d", model.calls)
		}
	})

	t.Run("再生成は多様性ヒントをプロンプトと設定に載せるのだ", func(t *testing.T) {
		model := &fakeModel{response: "gru"}
		cl := newTestClassifier(t, model)

		cl.Classify(context.Background(), "my grand plan", 1)

		if !strings.Contains(model.lastPrompt, "DIFFERENT") {
			t.Error("別の答えを求める指示がプロンプトにないのだ")
		}
		if model.lastOptionsLen == 0 {
			t.Error("温度とtop-pの引き上げオプションが渡されるべきなのだ")
		}
	})

	t.Run("リスト外のIDもそのまま返すのだ", func(t *testing.T) {
		model := &fakeModel{response: "mystery-template"}
		cl := newTestClassifier(t, model)

		got, err := cl.Classify(context.Background(), "weird input", 0)
		if err != nil {
			t.Fatalf("成功するべきなのだ: %v", err)
		}
		if got != "mystery-template" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("レートリミットは種別を変えずに伝播するのだ", func(t *testing.T) {
		model := &fakeModel{err: memerr.ErrRateLimited}
		cl := newTestClassifier(t, model)

		_, err := cl.Classify(context.Background(), "text", 0)
		if !errors.Is(err, memerr.ErrRateLimited) {
			t.Errorf("ErrRateLimitedのまま届くべきなのだ: %v", err)
		}
	})

	t.Run("その他の失敗はErrClassificationFailedに包むのだ", func(t *testing.T) {
		model := &fakeModel{err: errors.New("dns failure")}
		cl := newTestClassifier(t, model)

		_, err := cl.Classify(context.Background(), "text", 0)
		if !errors.Is(err, memerr.ErrClassificationFailed) {
			t.Errorf("ErrClassificationFailedであるべきなのだ: %v", err)
		}
	})

	t.Run("空の応答はErrClassificationFailedなのだ", func(t *testing.T) {
		model := &fakeModel{response: "   "}
		cl := newTestClassifier(t, model)

		_, err := cl.Classify(context.Background(), "text", 0)
		if !errors.Is(err, memerr.ErrClassificationFailed) {
			t.Errorf("ErrClassificationFailedであるべきなのだ: %v", err)
		}
	})
}
