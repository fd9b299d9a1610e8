package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-angel-http-service/models"
)

type sentMessage struct {
	Channel string
	Target  string
	Payload map[string]interface{}
}

// recordingNotifier 收集所有外发通知
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Send(channel, target string, payload map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{Channel: channel, Target: target, Payload: payload})
	return nil
}

func (n *recordingNotifier) all() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentMessage, len(n.sent))
	copy(out, n.sent)
	return out
}

// stubGeo 固定返回一个位置或错误
type stubGeo struct {
	pos *models.Position
	err error
}

func (g *stubGeo) LastPosition(userID uint) (*models.Position, error) {
	return g.pos, g.err
}

// stubShares 返回固定的共享会话
type stubShares struct {
	mu      sync.Mutex
	created int
}

func (s *stubShares) CreateShare(userID uint, recipients []string, duration time.Duration, isPublic bool) (*models.LocationShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	return &models.LocationShare{
		Token:     "share-token",
		UserID:    userID,
		IsPublic:  isPublic,
		ExpiresAt: time.Now().Add(duration),
	}, nil
}

// stubContacts 固定联系人列表
type stubContacts struct {
	contacts []models.EmergencyContact
}

func (c *stubContacts) GetNotifyTargets(userID uint) ([]models.EmergencyContact, error) {
	return c.contacts, nil
}

func newTestDispatcher(geo Geolocator, settings SettingsReader) (*DispatchService, *recordingNotifier, *memoryAlertStore) {
	cfg := testConfig()
	store := newMemoryAlertStore()
	notifier := &recordingNotifier{}
	contacts := &stubContacts{contacts: []models.EmergencyContact{
		{Name: "张三", PhoneNumber: "13800138000", Priority: 10},
		{Name: "李四", Email: "lisi@example.com", Priority: 5},
	}}
	if geo == nil {
		geo = &stubGeo{pos: &models.Position{Latitude: 39.9, Longitude: 116.4, Timestamp: time.Now()}}
	}
	if settings == nil {
		settings = &stubSettings{settings: &models.UserSettings{UserID: 1}}
	}
	svc := NewDispatchService(cfg, store, notifier, geo, &stubShares{}, contacts, settings).(*DispatchService)
	return svc, notifier, store
}

func testSnapshot(level models.AlertLevel) models.EventSnapshot {
	return models.EventSnapshot{
		EventID:   uuid.New().String(),
		UserID:    1,
		Level:     level,
		Trigger:   models.TriggerSingleTap,
		State:     models.EventStateActive,
		CreatedAt: time.Now(),
	}
}

func TestRedDispatchRunsFullPolicy(t *testing.T) {
	svc, notifier, store := newTestDispatcher(nil, nil)
	snapshot := testSnapshot(models.AlertLevelRed)

	outcome := svc.Dispatch(snapshot, make(chan struct{}))

	// 红色级别4个动作全部派发
	assert.Equal(t, 4, outcome.Dispatched)
	assert.Equal(t, 0, outcome.Failed)
	assert.False(t, outcome.Degraded)

	sent := notifier.all()
	require.NotEmpty(t, sent)

	// 第一条通知是呼叫警方
	assert.Equal(t, ChannelCall, sent[0].Channel)
	assert.Equal(t, "911", sent[0].Target)
	assert.Equal(t, snapshot.EventID, sent[0].Payload["event_id"])

	// 每个动作都留下派发日志
	logs, err := store.ListDispatchLogs(snapshot.EventID)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestDispatchDegradesWithoutPosition(t *testing.T) {
	geo := &stubGeo{err: ErrPositionUnavailable}
	svc, notifier, _ := newTestDispatcher(geo, nil)
	snapshot := testSnapshot(models.AlertLevelRed)

	outcome := svc.Dispatch(snapshot, make(chan struct{}))

	// 位置不可用时降级但不中断
	assert.True(t, outcome.Degraded)
	assert.Equal(t, 4, outcome.Dispatched)

	sent := notifier.all()
	require.NotEmpty(t, sent)
	assert.Equal(t, "unavailable", sent[0].Payload["location"])
	assert.NotContains(t, sent[0].Payload, "latitude")
}

func TestDispatchDeduplicatesEvent(t *testing.T) {
	svc, _, _ := newTestDispatcher(nil, nil)
	snapshot := testSnapshot(models.AlertLevelYellow)

	first := svc.Dispatch(snapshot, make(chan struct{}))
	assert.False(t, first.Skipped)

	// 同一事件的第二次派发请求被跳过
	second := svc.Dispatch(snapshot, make(chan struct{}))
	assert.True(t, second.Skipped)
	assert.Equal(t, 0, second.Dispatched)
}

func TestDispatchStopsOnCancel(t *testing.T) {
	svc, _, _ := newTestDispatcher(nil, nil)
	snapshot := testSnapshot(models.AlertLevelRed)

	stop := make(chan struct{})
	close(stop)

	outcome := svc.Dispatch(snapshot, stop)

	// stop已关闭：第一个动作执行后，后续动作在间隔处被拦下
	assert.True(t, outcome.Stopped)
	assert.LessOrEqual(t, outcome.Dispatched, 1)
}

func TestOrangeDispatchNotifiesContactsAndShares(t *testing.T) {
	svc, notifier, _ := newTestDispatcher(nil, nil)
	snapshot := testSnapshot(models.AlertLevelOrange)

	outcome := svc.Dispatch(snapshot, make(chan struct{}))
	assert.Equal(t, 2, outcome.Dispatched)

	sent := notifier.all()

	// 无电话的联系人回落到邮件通道
	channels := map[string]int{}
	for _, m := range sent {
		channels[m.Channel]++
	}
	assert.NotZero(t, channels[ChannelSMS])
	assert.NotZero(t, channels[ChannelEmail])

	// 位置共享的令牌通过短信送达
	var shared bool
	for _, m := range sent {
		if m.Payload["share_token"] == "share-token" {
			shared = true
		}
	}
	assert.True(t, shared)
}

func TestTestModeSkipsRealSends(t *testing.T) {
	settings := &stubSettings{settings: &models.UserSettings{UserID: 1, TestMode: true}}
	svc, notifier, store := newTestDispatcher(nil, settings)
	snapshot := testSnapshot(models.AlertLevelOrange)

	outcome := svc.Dispatch(snapshot, make(chan struct{}))

	// 测试模式：动作计为成功但不真正外发
	assert.Equal(t, 2, outcome.Dispatched)
	assert.Empty(t, notifier.all())

	logs, err := store.ListDispatchLogs(snapshot.EventID)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
	for _, l := range logs {
		assert.True(t, l.Success)
	}
}
