package services

import (
	"sync"
	"time"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// 取消请求被拒绝的原因
const (
	ReasonIncorrectPin    = "incorrect-pin"
	ReasonNotCancellable  = "not-cancellable"
	ReasonNoActiveAlert   = "no-active-alert"
	ReasonTooManyAttempts = "too-many-attempts"
)

// GuardDecision 取消请求的裁决结果
type GuardDecision struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// InterfaceGuardService defines the cancellation guard interface
type InterfaceGuardService interface {
	RequestCancel(snapshot models.EventSnapshot, enteredPin string) GuardDecision
	ResetAttempts(userID uint)
}

// GuardService 取消守卫
// 报警只能经守卫裁决后取消：倒计时阶段自由取消，
// 已激活的报警按级别与静默标志判定能否取消，启用PIN保护时必须PIN正确
type GuardService struct {
	Config   *config.Config
	Settings InterfaceSettingsService

	// PIN尝试限流，防止胁迫场景下暴力猜测
	attemptMu sync.Mutex
	attempts  map[uint]*attemptBucket
}

// attemptBucket 每用户的PIN尝试令牌桶
type attemptBucket struct {
	rate       float64
	capacity   int
	tokens     float64
	lastRefill time.Time
}

func (b *attemptBucket) allow() bool {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.rate
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// NewGuardService 创建新的取消守卫
func NewGuardService(cfg *config.Config, settings InterfaceSettingsService) InterfaceGuardService {
	return &GuardService{
		Config:   cfg,
		Settings: settings,
		attempts: make(map[uint]*attemptBucket),
	}
}

// RequestCancel 裁决一次取消请求
func (s *GuardService) RequestCancel(snapshot models.EventSnapshot, enteredPin string) GuardDecision {
	switch snapshot.State {
	case models.EventStateArming:
		// 倒计时阶段永远允许取消，不需要PIN：
		// 误触必须能在误报发出之前被撤回
		return GuardDecision{Accepted: true}
	case models.EventStateActive:
		// 已激活后按级别判定
	default:
		return GuardDecision{Accepted: false, Reason: ReasonNoActiveAlert}
	}

	// 红色非静默报警激活后不可取消，只能等待处置完成
	if snapshot.Level == models.AlertLevelRed && !snapshot.Silent {
		return GuardDecision{Accepted: false, Reason: ReasonNotCancellable}
	}

	settings, err := s.Settings.GetSettings(snapshot.UserID)
	if err != nil {
		// 设置读取失败时放行：取消通道不能因为存储故障而锁死
		return GuardDecision{Accepted: true}
	}

	if !settings.PinRequired() {
		return GuardDecision{Accepted: true}
	}

	// PIN保护开启：限流后校验
	if !s.allowAttempt(snapshot.UserID) {
		return GuardDecision{Accepted: false, Reason: ReasonTooManyAttempts}
	}

	ok, err := s.Settings.VerifyCancelPin(snapshot.UserID, enteredPin)
	if err != nil {
		return GuardDecision{Accepted: false, Reason: ReasonIncorrectPin}
	}
	if !ok {
		return GuardDecision{Accepted: false, Reason: ReasonIncorrectPin}
	}

	s.ResetAttempts(snapshot.UserID)
	return GuardDecision{Accepted: true}
}

// allowAttempt 获取一次PIN尝试机会
func (s *GuardService) allowAttempt(userID uint) bool {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()

	bucket, exists := s.attempts[userID]
	if !exists {
		// 允许5次突发尝试，之后每秒恢复1次
		bucket = &attemptBucket{
			rate:       1,
			capacity:   5,
			tokens:     5,
			lastRefill: time.Now(),
		}
		s.attempts[userID] = bucket
	}
	return bucket.allow()
}

// ResetAttempts 清除用户的尝试记录
func (s *GuardService) ResetAttempts(userID uint) {
	s.attemptMu.Lock()
	defer s.attemptMu.Unlock()
	delete(s.attempts, userID)
}
