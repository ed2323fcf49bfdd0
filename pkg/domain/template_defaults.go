package domain

// defaultTemplates はビルトインのテンプレートテーブルです。
// LayoutConvention は整形プロンプトへそのまま注入される英語の規約文で、
// 各スロットに何を置くべきかの役割を説明します。
var defaultTemplates = []TemplateDescriptor{
	{
		ID:               "drake",
		DisplayName:      "Drake Hotline Bling",
		LayoutConvention: "rejected option / approved option, each at most 35 characters (example: writing tests after release / writing tests before release)",
		Topics:           []string{"preference", "comparison", "rejection", "approval"},
	},
	{
		ID:               "db",
		DisplayName:      "Distracted Boyfriend",
		LayoutConvention: "the tempting new thing / the neglected current thing, each at most 35 characters",
		Topics:           []string{"temptation", "distraction", "betrayal", "new vs old"},
	},
	{
		ID:               "cmm",
		DisplayName:      "Change My Mind",
		LayoutConvention: "one single provocative statement, at most 70 characters, no separator",
		Topics:           []string{"opinion", "hot take", "debate"},
	},
	{
		ID:               "gru",
		DisplayName:      "Gru's Plan",
		LayoutConvention: "the confident plan / the unexpected backfire, each at most 35 characters",
		Topics:           []string{"plan", "backfire", "irony"},
	},
	{
		ID:               "fine",
		DisplayName:      "This Is Fine",
		LayoutConvention: "the disaster happening / the calm denial, each at most 35 characters (example: production is on fire / this is fine)",
		Topics:           []string{"disaster", "denial", "stress", "calm"},
	},
	{
		ID:               "spongebob",
		DisplayName:      "Mocking Spongebob",
		LayoutConvention: "the serious claim / the same claim repeated mockingly, each at most 35 characters",
		Topics:           []string{"mockery", "sarcasm", "imitation"},
	},
	{
		ID:               "ds",
		DisplayName:      "Daily Struggle (Two Buttons)",
		LayoutConvention: "first impossible choice / second impossible choice, each at most 35 characters",
		Topics:           []string{"dilemma", "choice", "indecision"},
	},
	{
		ID:               "astronaut",
		DisplayName:      "Always Has Been",
		LayoutConvention: "the shocking realization / always has been, each at most 35 characters",
		Topics:           []string{"revelation", "realization", "conspiracy"},
	},
	{
		ID:               "success",
		DisplayName:      "Success Kid",
		LayoutConvention: "the tough situation / the small victory, each at most 35 characters",
		Topics:           []string{"victory", "luck", "achievement"},
	},
	{
		ID:               "stonks",
		DisplayName:      "Stonks",
		LayoutConvention: "the questionable financial decision / stonks, each at most 35 characters",
		Topics:           []string{"money", "investment", "profit", "bad decision"},
	},
}

// DefaultRegistry はビルトインテーブルからレジストリを生成します。
func DefaultRegistry() *Registry {
	return NewRegistry(defaultTemplates)
}
