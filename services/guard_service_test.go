package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"guardian-angel-http-service/models"
)

func guardSnapshot(state models.EventState, level models.AlertLevel, silent bool) models.EventSnapshot {
	return models.EventSnapshot{
		EventID: "evt-1",
		UserID:  1,
		Level:   level,
		State:   state,
		Silent:  silent,
	}
}

func TestGuardAcceptsArmingCancelUnconditionally(t *testing.T) {
	settings := &stubSettings{
		settings: &models.UserSettings{UserID: 1, PinProtectCancel: true, CancelPinHash: "x"},
		pin:      "1234",
	}
	guard := NewGuardService(testConfig(), settings)

	// 倒计时阶段PIN留空甚至填错都允许取消
	decision := guard.RequestCancel(guardSnapshot(models.EventStateArming, models.AlertLevelRed, false), "")
	assert.True(t, decision.Accepted)

	decision = guard.RequestCancel(guardSnapshot(models.EventStateArming, models.AlertLevelRed, false), "wrong")
	assert.True(t, decision.Accepted)
}

func TestGuardRejectsRedNonSilentActive(t *testing.T) {
	guard := NewGuardService(testConfig(), &stubSettings{settings: &models.UserSettings{UserID: 1}})

	decision := guard.RequestCancel(guardSnapshot(models.EventStateActive, models.AlertLevelRed, false), "")
	assert.False(t, decision.Accepted)
	assert.Equal(t, ReasonNotCancellable, decision.Reason)

	// 静默红色报警仍可取消
	decision = guard.RequestCancel(guardSnapshot(models.EventStateActive, models.AlertLevelRed, true), "")
	assert.True(t, decision.Accepted)
}

func TestGuardRejectsTerminalStates(t *testing.T) {
	guard := NewGuardService(testConfig(), &stubSettings{settings: &models.UserSettings{UserID: 1}})

	for _, state := range []models.EventState{models.EventStateCancelled, models.EventStateResolved} {
		decision := guard.RequestCancel(guardSnapshot(state, models.AlertLevelOrange, false), "")
		assert.False(t, decision.Accepted)
		assert.Equal(t, ReasonNoActiveAlert, decision.Reason)
	}
}

func TestGuardAcceptsWhenNoPinConfigured(t *testing.T) {
	guard := NewGuardService(testConfig(), &stubSettings{settings: &models.UserSettings{UserID: 1}})

	decision := guard.RequestCancel(guardSnapshot(models.EventStateActive, models.AlertLevelOrange, false), "")
	assert.True(t, decision.Accepted)
}

func TestGuardAcceptsOnSettingsFailure(t *testing.T) {
	// 设置读取失败时放行，取消通道不能被存储故障锁死
	guard := NewGuardService(testConfig(), &stubSettings{err: errors.New("db down")})

	decision := guard.RequestCancel(guardSnapshot(models.EventStateActive, models.AlertLevelOrange, false), "")
	assert.True(t, decision.Accepted)
}

func TestGuardLimitsPinAttempts(t *testing.T) {
	settings := &stubSettings{
		settings: &models.UserSettings{UserID: 1, PinProtectCancel: true, CancelPinHash: "x"},
		pin:      "1234",
	}
	guard := NewGuardService(testConfig(), settings)
	snapshot := guardSnapshot(models.EventStateActive, models.AlertLevelOrange, false)

	// 突发允许5次尝试
	for i := 0; i < 5; i++ {
		decision := guard.RequestCancel(snapshot, "0000")
		assert.Equal(t, ReasonIncorrectPin, decision.Reason, "第%d次尝试", i+1)
	}

	// 第6次起被限流，连正确的PIN也进不来
	decision := guard.RequestCancel(snapshot, "1234")
	assert.False(t, decision.Accepted)
	assert.Equal(t, ReasonTooManyAttempts, decision.Reason)

	// 清除记录后恢复
	guard.ResetAttempts(1)
	decision = guard.RequestCancel(snapshot, "1234")
	assert.True(t, decision.Accepted)
}
