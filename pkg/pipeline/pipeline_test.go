package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shouni/go-meme-kit/pkg/domain"
	"github.com/shouni/go-meme-kit/pkg/memerr"
)

// fakeClassifier は入力ごとに固定のIDを返す分類器のテストダブルなのだ。
type fakeClassifier struct {
	mu    sync.Mutex
	id    string
	err   error
	calls int
	seeds []int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string, variantSeed int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seeds = append(f.seeds, variantSeed)
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

// fakeResolver は入力テキストに応じて成否を切り替えるリゾルバのテストダブルなのだ。
type fakeResolver struct {
	mu      sync.Mutex
	failOn  string
	failErr error
	forces  []bool
}

func (f *fakeResolver) Resolve(ctx context.Context, templateID, text string, skipFormatting, forceRegenerate bool) (domain.MemeResult, error) {
	f.mu.Lock()
	f.forces = append(f.forces, forceRegenerate)
	f.mu.Unlock()

	if f.failOn != "" && text == f.failOn {
		return domain.MemeResult{}, f.failErr
	}
	return domain.MemeResult{
		FinalImageURL: "https://img.example.com/" + templateID + ".png",
		DisplayText:   text,
		TemplateID:    templateID,
	}, nil
}

func TestPipeline_GenerateMeme(t *testing.T) {
	t.Run("テンプレート未指定なら分類器が選ぶのだ", func(t *testing.T) {
		cl := &fakeClassifier{id: "drake"}
		p := New(cl, &fakeResolver{}, WithRateInterval(0))

		res, err := p.GenerateMeme(context.Background(), "some text", GenerateOpts{})
		if err != nil {
			t.Fatalf("成功するべきなのだ: %v", err)
		}
		if cl.calls != 1 {
			t.Errorf("分類器は1回呼ばれるはずなのだ: calls=%d", cl.calls)
		}
		if res.TemplateID != "drake" {
			t.Errorf("got %q", res.TemplateID)
		}
	})

	t.Run("テンプレート指定時は分類を省くのだ", func(t *testing.T) {
		cl := &fakeClassifier{id: "drake"}
		p := New(cl, &fakeResolver{}, WithRateInterval(0))

		res, err := p.GenerateMeme(context.Background(), "some text", GenerateOpts{TemplateID: "gru"})
		if err != nil {
			t.Fatalf("成功するべきなのだ: %v", err)
		}
		if cl.calls != 0 {
			t.Errorf("分類器は呼ばれないはずなのだ: calls=%d", cl.calls)
		}
		if res.TemplateID != "gru" {
			t.Errorf("got %q", res.TemplateID)
		}
	})

	t.Run("VariantSeedは分類と再生成ヒントに伝わるのだ", func(t *testing.T) {
		cl := &fakeClassifier{id: "drake"}
		r := &fakeResolver{}
		p := New(cl, r, WithRateInterval(0))

		p.GenerateMeme(context.Background(), "text", GenerateOpts{VariantSeed: 3})

		if len(cl.seeds) != 1 || cl.seeds[0] != 3 {
			t.Errorf("分類器にシードが渡るべきなのだ: %v", cl.seeds)
		}
		if len(r.forces) != 1 || !r.forces[0] {
			t.Errorf("リゾルバに再生成ヒントが渡るべきなのだ: %v", r.forces)
		}
	})

	t.Run("分類の失敗はラップして返すのだ", func(t *testing.T) {
		cl := &fakeClassifier{err: memerr.ErrClassificationFailed}
		p := New(cl, &fakeResolver{}, WithRateInterval(0))

		_, err := p.GenerateMeme(context.Background(), "text", GenerateOpts{})
		if !errors.Is(err, memerr.ErrClassificationFailed) {
			t.Errorf("種別は保たれるべきなのだ: %v", err)
		}
	})
}

func TestPipeline_GenerateBatch(t *testing.T) {
	t.Run("全項目の成否が揃って返るのだ", func(t *testing.T) {
		cl := &fakeClassifier{id: "drake"}
		p := New(cl, &fakeResolver{}, WithRateInterval(0))

		texts := []string{"one", "two", "three"}
		outcomes := p.GenerateBatch(context.Background(), texts, GenerateOpts{})

		if len(outcomes) != 3 {
			t.Fatalf("項目数が合わないのだ: %d", len(outcomes))
		}
		for i, o := range outcomes {
			if !o.OK() {
				t.Errorf("項目%dは成功するべきなのだ: %v", i, o.Err)
			}
			if o.Input != texts[i] {
				t.Errorf("項目%dの入力が入れ替わっているのだ: %q", i, o.Input)
			}
		}
	})

	t.Run("1項目の失敗は兄弟を巻き込まないのだ", func(t *testing.T) {
		cl := &fakeClassifier{id: "drake"}
		r := &fakeResolver{failOn: "bad", failErr: memerr.ErrRateLimited}
		p := New(cl, r, WithRateInterval(0))

		outcomes := p.GenerateBatch(context.Background(), []string{"ok1", "bad", "ok2"}, GenerateOpts{})

		if outcomes[0].Err != nil || outcomes[2].Err != nil {
			t.Error("成功項目まで失敗扱いになっているのだ")
		}
		if !errors.Is(outcomes[1].Err, memerr.ErrRateLimited) {
			t.Errorf("失敗項目はエラー種別を保持するべきなのだ: %v", outcomes[1].Err)
		}
	})
}
