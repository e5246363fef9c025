package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"waitlist-backend/internal/domain"
	"waitlist-backend/internal/repository"
)

// 提交结果代码，原样出现在响应体的 code 字段里。
const (
	CodeCreated = "created"
	CodeUpdated = "updated"
)

// SubmitResult 描述一次成功处理的提交。
type SubmitResult struct {
	Code    string // created / updated；蜜罐短路时为空
	Message string
	Spam    bool // 蜜罐命中：对外返回成功，但没有任何副作用
}

// WaitlistService 负责候补报名提交的完整业务流程:
// 规范化 → 蜜罐短路 → 校验 → 保证表结构 → 限流 → 入库。
type WaitlistService struct {
	signupRepo repository.SignupRepository
	schema     repository.SchemaEnsurer
	limiter    *RateLimiter
}

// NewWaitlistService 创建 WaitlistService 实例。
func NewWaitlistService(signupRepo repository.SignupRepository, schema repository.SchemaEnsurer, limiter *RateLimiter) *WaitlistService {
	if signupRepo == nil {
		panic("SignupRepository cannot be nil for WaitlistService")
	}
	if schema == nil {
		panic("SchemaEnsurer cannot be nil for WaitlistService")
	}
	if limiter == nil {
		panic("RateLimiter cannot be nil for WaitlistService")
	}
	return &WaitlistService{
		signupRepo: signupRepo,
		schema:     schema,
		limiter:    limiter,
	}
}

// Submit 处理一次提交。clientIP 为空串表示无法确定客户端地址。
func (s *WaitlistService) Submit(ctx context.Context, raw map[string]interface{}, clientIP string) (*SubmitResult, error) {
	sub := normalizeSubmission(raw)

	// 蜜罐字段非空：按成功返回但不做任何事，避免提示爬虫
	if sub.Company != "" {
		logrus.WithField("client_ip", clientIP).Info("WaitlistService: honeypot triggered, dropping submission")
		return &SubmitResult{Spam: true, Message: "Saved."}, nil
	}

	if vErr := validateSubmission(sub); vErr != nil {
		return nil, vErr
	}

	if err := s.schema.Ensure(ctx); err != nil {
		logrus.WithError(err).Error("WaitlistService: schema initialization failed")
		return nil, ErrInternalServer
	}

	if err := s.limiter.Check(ctx, clientIP, sub.Email); err != nil {
		return nil, err
	}

	signup := &domain.WaitlistSignup{
		Email:         sub.Email,
		Identity:      sub.Identity,
		EmotionalHook: sub.EmotionalHook,
		GoldInsight:   sub.GoldInsight,
		FeatureSignal: domain.JoinFeatureSignals(sub.FeatureSignal),
		Commitment:    sub.Commitment,
	}
	if sub.Identity == domain.IdentityOtherSentinel {
		other := sub.IdentityOther
		signup.IdentityOther = &other
	}

	created, err := s.signupRepo.Upsert(ctx, signup)
	if err != nil {
		logrus.WithError(err).WithField("email", sub.Email).Error("WaitlistService: failed to persist signup")
		return nil, ErrInternalServer
	}

	logrus.WithFields(logrus.Fields{"email": sub.Email, "created": created}).
		Info("WaitlistService: signup persisted")

	if created {
		return &SubmitResult{Code: CodeCreated, Message: "Thanks for joining the waitlist."}, nil
	}
	return &SubmitResult{Code: CodeUpdated, Message: "Your waitlist answers have been updated."}, nil
}
