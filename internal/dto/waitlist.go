package dto

// WaitlistSubmission 表示规范化之后的提交候选：字符串已去首尾空白，
// email 已转小写，featureSignal 已去重并过滤为注册表中的取值。
type WaitlistSubmission struct {
	Email         string
	Identity      string
	IdentityOther string
	EmotionalHook string
	GoldInsight   string
	FeatureSignal []string
	Commitment    string
	Company       string // 蜜罐字段，正常用户不会填写；非空意味着自动化提交
}

// WaitlistResponse 表示提交接口的统一响应结构。
type WaitlistResponse struct {
	Ok      bool   `json:"ok"`
	Code    string `json:"code,omitempty"` // created / updated / rate_limited
	Message string `json:"message,omitempty"`
}
