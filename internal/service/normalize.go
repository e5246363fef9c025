package service

import (
	"strings"

	"waitlist-backend/internal/domain"
	"waitlist-backend/internal/dto"
)

// normalizeSubmission 把任意形状的请求体收敛为规范的候选记录：
// 字段缺失或类型不符一律归一为空值，绝不报错；
// 多选字段去重并丢弃未注册的取值。
func normalizeSubmission(raw map[string]interface{}) *dto.WaitlistSubmission {
	return &dto.WaitlistSubmission{
		Email:         strings.ToLower(stringField(raw, "email")),
		Identity:      stringField(raw, "identity"),
		IdentityOther: stringField(raw, "identityOther"),
		EmotionalHook: stringField(raw, "emotionalHook"),
		GoldInsight:   stringField(raw, "goldInsight"),
		FeatureSignal: featureSignalField(raw, "featureSignal"),
		Commitment:    stringField(raw, "commitment"),
		Company:       stringField(raw, "company"),
	}
}

// stringField 取出一个字符串字段并去掉首尾空白；非字符串或缺失返回空串。
func stringField(raw map[string]interface{}, name string) string {
	value, ok := raw[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// featureSignalField 取出多选字段：仅保留注册表中的取值并去重，保持出现顺序。
func featureSignalField(raw map[string]interface{}, name string) []string {
	items, ok := raw[name].([]interface{})
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	var signals []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || !domain.IsFeatureSignalOption(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		signals = append(signals, s)
	}
	return signals
}
