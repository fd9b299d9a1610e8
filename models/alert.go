package models

import (
	"errors"
	"sync"
	"time"
)

// AlertLevel 报警级别，对应产品定义的红/橙/黄三档
type AlertLevel string

const (
	AlertLevelRed    AlertLevel = "red"    // 全量报警：联系人+警方+持续定位
	AlertLevelOrange AlertLevel = "orange" // 仅通知紧急联系人
	AlertLevelYellow AlertLevel = "yellow" // 安全打卡
)

// TriggerType 报警触发方式
type TriggerType string

const (
	TriggerSingleTap    TriggerType = "single-tap"
	TriggerDoubleTap    TriggerType = "double-tap-silent"
	TriggerHoldToArm    TriggerType = "hold-to-arm"
	TriggerManualSelect TriggerType = "manual-level-select"
	TriggerVoicePhrase  TriggerType = "voice-phrase"
)

// EventState 报警事件状态
type EventState string

const (
	EventStateArming    EventState = "arming"    // 倒计时进行中
	EventStateActive    EventState = "active"    // 副作用派发中/已派发
	EventStateCancelled EventState = "cancelled" // 已取消（终态）
	EventStateResolved  EventState = "resolved"  // 已解除（终态）
)

// Terminal 判断状态是否为终态
func (s EventState) Terminal() bool {
	return s == EventStateCancelled || s == EventStateResolved
}

// EmergencyEvent 表示一次报警会话
type EmergencyEvent struct {
	EventID      string      // 事件唯一标识
	UserID       uint        // 触发用户ID，0表示设备自动触发
	Level        AlertLevel  // 报警级别
	Trigger      TriggerType // 触发方式
	State        EventState  // 当前状态
	Silent       bool        // 静默报警：不展示倒计时、不鸣笛
	CreatedAt    time.Time   // 创建时间
	Countdown    int         // 剩余倒计时秒数（arming状态下有效）
	LastActivity time.Time   // 最后活动时间
	mu           sync.Mutex  // 互斥锁，保护事件状态修改
}

// NewEmergencyEvent 创建一个新的报警事件
func NewEmergencyEvent(eventID string, userID uint, level AlertLevel, trigger TriggerType, silent bool) *EmergencyEvent {
	now := time.Now()
	return &EmergencyEvent{
		EventID:      eventID,
		UserID:       userID,
		Level:        level,
		Trigger:      trigger,
		Silent:       silent,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Snapshot 返回事件当前状态的只读副本
func (e *EmergencyEvent) Snapshot() EventSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return EventSnapshot{
		EventID:   e.EventID,
		UserID:    e.UserID,
		Level:     e.Level,
		Trigger:   e.Trigger,
		State:     e.State,
		Silent:    e.Silent,
		CreatedAt: e.CreatedAt,
		Countdown: e.Countdown,
	}
}

// SetState 更新事件状态
func (e *EmergencyEvent) SetState(state EventState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.State = state
	e.LastActivity = time.Now()
}

// GetState 读取事件状态
func (e *EmergencyEvent) GetState() EventState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.State
}

// SetCountdown 更新剩余倒计时
func (e *EmergencyEvent) SetCountdown(remaining int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Countdown = remaining
	e.LastActivity = time.Now()
}

// GetCountdown 读取剩余倒计时
func (e *EmergencyEvent) GetCountdown() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Countdown
}

// EventSnapshot 对外暴露的事件状态快照
type EventSnapshot struct {
	EventID   string      `json:"event_id"`
	UserID    uint        `json:"user_id"`
	Level     AlertLevel  `json:"level"`
	Trigger   TriggerType `json:"trigger"`
	State     EventState  `json:"state"`
	Silent    bool        `json:"silent"`
	CreatedAt time.Time   `json:"created_at"`
	Countdown int         `json:"countdown"`
}

// ErrAlertInProgress 已有报警在进行中时返回
var ErrAlertInProgress = errors.New("已有报警事件正在进行中")

// AlertManager 管理当前报警事件槽位
// 约束：同一时间最多只允许一个事件处于arming或active状态，
// 新手势在事件进行中一律拒绝，不排队
type AlertManager struct {
	current *EmergencyEvent
	mu      sync.RWMutex
}

// NewAlertManager 创建一个新的报警事件管理器
func NewAlertManager() *AlertManager {
	return &AlertManager{}
}

// BeginEvent 占用当前事件槽位
func (m *AlertManager) BeginEvent(event *EmergencyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.current.GetState().Terminal() {
		return ErrAlertInProgress
	}

	m.current = event
	return nil
}

// Current 获取当前进行中的事件
func (m *AlertManager) Current() (*EmergencyEvent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil || m.current.GetState().Terminal() {
		return nil, false
	}
	return m.current, true
}

// Get 根据事件ID获取事件（只认当前槽位）
func (m *AlertManager) Get(eventID string) (*EmergencyEvent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil || m.current.EventID != eventID {
		return nil, false
	}
	return m.current, true
}

// Release 释放槽位，事件必须已进入终态
func (m *AlertManager) Release(eventID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.EventID == eventID {
		m.current = nil
	}
}

// AlertRecord 报警事件的持久化记录（报警历史）
type AlertRecord struct {
	BaseModel
	EventID     string      `gorm:"type:varchar(36);uniqueIndex;not null" json:"event_id"`
	UserID      uint        `json:"user_id"`
	Level       AlertLevel  `gorm:"type:varchar(10);not null" json:"level"`
	Trigger     TriggerType `gorm:"type:varchar(30);not null" json:"trigger"`
	State       EventState  `gorm:"type:varchar(20);not null" json:"state"`
	Silent      bool        `gorm:"default:false" json:"silent"`
	TriggeredAt time.Time   `json:"triggered_at"`
	EndedAt     *time.Time  `json:"ended_at,omitempty"`
	Reason      string      `gorm:"type:text" json:"reason,omitempty"` // 取消/解除原因
	Latitude    *float64    `json:"latitude,omitempty"`
	Longitude   *float64    `json:"longitude,omitempty"`
}

// DispatchLog 单个副作用动作的派发记录
type DispatchLog struct {
	BaseModel
	EventID   string    `gorm:"type:varchar(36);index;not null" json:"event_id"`
	Action    string    `gorm:"type:varchar(40);not null" json:"action"`
	Channel   string    `gorm:"type:varchar(10)" json:"channel"` // sms/email/push/call
	Target    string    `gorm:"type:varchar(100)" json:"target"`
	Success   bool      `gorm:"default:false" json:"success"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
