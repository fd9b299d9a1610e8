package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertManagerSingleSlot(t *testing.T) {
	m := NewAlertManager()

	first := NewEmergencyEvent("evt-1", 1, AlertLevelRed, TriggerSingleTap, false)
	first.SetState(EventStateActive)
	require.NoError(t, m.BeginEvent(first))

	// 进行中的事件占住槽位，新事件被拒绝
	second := NewEmergencyEvent("evt-2", 1, AlertLevelOrange, TriggerSingleTap, false)
	assert.ErrorIs(t, m.BeginEvent(second), ErrAlertInProgress)

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "evt-1", current.EventID)
}

func TestAlertManagerReleasesTerminalEvent(t *testing.T) {
	m := NewAlertManager()

	event := NewEmergencyEvent("evt-1", 1, AlertLevelRed, TriggerSingleTap, false)
	event.SetState(EventStateActive)
	require.NoError(t, m.BeginEvent(event))

	// 进入终态后槽位视为空闲，即使还未显式Release
	event.SetState(EventStateCancelled)
	_, ok := m.Current()
	assert.False(t, ok)

	next := NewEmergencyEvent("evt-2", 1, AlertLevelYellow, TriggerManualSelect, false)
	assert.NoError(t, m.BeginEvent(next))
}

func TestAlertManagerReleaseIgnoresStaleID(t *testing.T) {
	m := NewAlertManager()

	event := NewEmergencyEvent("evt-1", 1, AlertLevelRed, TriggerSingleTap, false)
	event.SetState(EventStateActive)
	require.NoError(t, m.BeginEvent(event))

	// 释放别的事件ID不影响当前槽位
	m.Release("evt-other")
	_, ok := m.Current()
	assert.True(t, ok)

	m.Release("evt-1")
	_, ok = m.Current()
	assert.False(t, ok)
}

func TestEventSnapshotIsIsolated(t *testing.T) {
	event := NewEmergencyEvent("evt-1", 1, AlertLevelRed, TriggerHoldToArm, false)
	event.SetState(EventStateArming)
	event.SetCountdown(30)

	snapshot := event.Snapshot()

	// 快照是只读副本，后续修改不影响已取出的快照
	event.SetCountdown(10)
	event.SetState(EventStateActive)

	assert.Equal(t, 30, snapshot.Countdown)
	assert.Equal(t, EventStateArming, snapshot.State)
	assert.Equal(t, 10, event.GetCountdown())
}

func TestEventStateTerminal(t *testing.T) {
	assert.False(t, EventStateArming.Terminal())
	assert.False(t, EventStateActive.Terminal())
	assert.True(t, EventStateCancelled.Terminal())
	assert.True(t, EventStateResolved.Terminal())
}
