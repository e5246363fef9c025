package service

import (
	"regexp"

	"waitlist-backend/internal/domain"
	"waitlist-backend/internal/dto"
)

// 与前端一致的宽松邮箱形状检查: local@domain.tld，不允许空白字符
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	maxIdentityOtherLength = 120
	maxGoldInsightLength   = 500
	minFeatureSignals      = 1
	maxFeatureSignals      = 2
)

// validateSubmission 按固定顺序检查各字段，第一条未通过的规则决定返回的消息，
// 因此同样的输入总是得到同样的错误提示。
func validateSubmission(sub *dto.WaitlistSubmission) *ValidationError {
	if !emailPattern.MatchString(sub.Email) {
		return newValidationError("Please provide a valid email address.")
	}
	if !domain.IsIdentityOption(sub.Identity) {
		return newValidationError("Please choose an identity.")
	}
	if sub.Identity == domain.IdentityOtherSentinel && sub.IdentityOther == "" {
		return newValidationError("Please describe your identity.")
	}
	if len([]rune(sub.IdentityOther)) > maxIdentityOtherLength {
		return newValidationError("Please keep your identity description under 120 characters.")
	}
	if !domain.IsEmotionalHookOption(sub.EmotionalHook) {
		return newValidationError("Please choose a frequency.")
	}
	if sub.GoldInsight == "" {
		return newValidationError("Please share one detail you wish you had remembered.")
	}
	if len([]rune(sub.GoldInsight)) > maxGoldInsightLength {
		return newValidationError("Please keep your note under 500 characters.")
	}
	if len(sub.FeatureSignal) < minFeatureSignals || len(sub.FeatureSignal) > maxFeatureSignals {
		return newValidationError("Please pick 1 to 2 features.")
	}
	if !domain.IsCommitmentOption(sub.Commitment) {
		return newValidationError("Please choose a commitment option.")
	}
	return nil
}
