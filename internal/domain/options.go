package domain

// 候补表单各分类字段允许的取值，与前端渲染的选项保持一致。
// 校验只接受这里列出的值；多选字段中未注册的取值在规范化阶段被丢弃。

// IdentityOtherSentinel 是 identity 字段的哨兵值，选中后必须填写自由文本描述。
const IdentityOtherSentinel = "Other"

var IdentityOptions = []string{
	"Real estate professional",
	"Legal professional",
	"Financial professional",
	"Sales or business development",
	"Founder or executive",
	"Investor",
	IdentityOtherSentinel,
}

var EmotionalHookOptions = []string{"Rarely", "Sometimes", "Often", "Too often"}

var FeatureSignalOptions = []string{
	"One-tap voice capture",
	"Smart follow-up reminders",
	"Context popping up on calendar and calls",
	"Search across people",
	"AI call prep before meetings",
}

var CommitmentOptions = []string{
	"Yes, I want early access",
	"Yes, and I'll give feedback",
	"Just keep me updated",
}

var (
	identitySet      = toSet(IdentityOptions)
	emotionalHookSet = toSet(EmotionalHookOptions)
	featureSignalSet = toSet(FeatureSignalOptions)
	commitmentSet    = toSet(CommitmentOptions)
)

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// IsIdentityOption 判断取值是否属于 identity 注册表。
func IsIdentityOption(v string) bool {
	_, ok := identitySet[v]
	return ok
}

// IsEmotionalHookOption 判断取值是否属于 emotionalHook 注册表。
func IsEmotionalHookOption(v string) bool {
	_, ok := emotionalHookSet[v]
	return ok
}

// IsFeatureSignalOption 判断取值是否属于 featureSignal 注册表。
func IsFeatureSignalOption(v string) bool {
	_, ok := featureSignalSet[v]
	return ok
}

// IsCommitmentOption 判断取值是否属于 commitment 注册表。
func IsCommitmentOption(v string) bool {
	_, ok := commitmentSet[v]
	return ok
}
