package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// 测试用配置，时间参数压缩到毫秒级
func testConfig() *config.Config {
	return &config.Config{
		AlertCountdownSeconds: 3,
		AlertCountdownTick:    10 * time.Millisecond,
		AlertResolveDelay:     30 * time.Millisecond,
		DispatchStagger:       5 * time.Millisecond,
		GestureTapWindow:      40 * time.Millisecond,
		GestureHoldDuration:   80 * time.Millisecond,
		ShareDefaultTTL:       30 * time.Minute,
		PoliceDispatchNumber:  "911",
	}
}

// memoryAlertStore 内存版报警记录存储
type memoryAlertStore struct {
	mu      sync.Mutex
	records map[string]*models.AlertRecord
	logs    []models.DispatchLog
}

func newMemoryAlertStore() *memoryAlertStore {
	return &memoryAlertStore{records: make(map[string]*models.AlertRecord)}
}

func (s *memoryAlertStore) CreateRecord(snapshot models.EventSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[snapshot.EventID] = &models.AlertRecord{
		EventID:     snapshot.EventID,
		UserID:      snapshot.UserID,
		Level:       snapshot.Level,
		Trigger:     snapshot.Trigger,
		State:       snapshot.State,
		Silent:      snapshot.Silent,
		TriggeredAt: snapshot.CreatedAt,
	}
	return nil
}

func (s *memoryAlertStore) UpdateRecordState(eventID string, state models.EventState, reason string, endedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[eventID]; ok {
		r.State = state
		if reason != "" {
			r.Reason = reason
		}
		r.EndedAt = endedAt
	}
	return nil
}

func (s *memoryAlertStore) SetRecordLocation(eventID string, lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[eventID]; ok {
		r.Latitude = &lat
		r.Longitude = &lng
	}
	return nil
}

func (s *memoryAlertStore) RecordDispatch(entry *models.DispatchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *memoryAlertStore) ListRecords(userID uint, pagination *models.PaginationQuery) ([]models.AlertRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AlertRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memoryAlertStore) ListDispatchLogs(eventID string) ([]models.DispatchLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DispatchLog
	for _, l := range s.logs {
		if l.EventID == eventID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memoryAlertStore) record(eventID string) *models.AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[eventID]; ok {
		copied := *r
		return &copied
	}
	return nil
}

// stubDispatcher 记录派发调用并可控制耗时
type stubDispatcher struct {
	mu        sync.Mutex
	calls     []models.EventSnapshot
	delay     time.Duration
	outcome   DispatchOutcome
	stoppedCh chan struct{}
}

func (d *stubDispatcher) Dispatch(snapshot models.EventSnapshot, stop <-chan struct{}) DispatchOutcome {
	d.mu.Lock()
	d.calls = append(d.calls, snapshot)
	d.mu.Unlock()

	if d.delay > 0 {
		select {
		case <-stop:
			if d.stoppedCh != nil {
				close(d.stoppedCh)
			}
			out := d.outcome
			out.Stopped = true
			return out
		case <-time.After(d.delay):
		}
	}
	return d.outcome
}

func (d *stubDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// stubSettings 固定返回一份用户设置
type stubSettings struct {
	settings *models.UserSettings
	err      error
	pin      string
}

func (s *stubSettings) GetSettings(userID uint) (*models.UserSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.settings, nil
}

func (s *stubSettings) UpdateSettings(userID uint, updates map[string]interface{}) (*models.UserSettings, error) {
	return s.settings, nil
}

func (s *stubSettings) SetCancelPin(userID uint, pin string) error { s.pin = pin; return nil }
func (s *stubSettings) ClearCancelPin(userID uint) error           { s.pin = ""; return nil }

func (s *stubSettings) VerifyCancelPin(userID uint, pin string) (bool, error) {
	return pin == s.pin, nil
}

func newTestAlertService(t *testing.T, dispatcher InterfaceDispatchService, settings InterfaceSettingsService) (*AlertService, *memoryAlertStore) {
	t.Helper()
	cfg := testConfig()
	store := newMemoryAlertStore()
	if settings == nil {
		settings = &stubSettings{settings: &models.UserSettings{UserID: 1}}
	}
	guard := NewGuardService(cfg, settings)
	svc := NewAlertService(cfg, store, dispatcher, guard, settings).(*AlertService)
	return svc, store
}

// 等待条件成立，避免用长sleep拖慢测试
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("等待条件超时")
}

func TestSingleTapActivatesImmediately(t *testing.T) {
	dispatcher := &stubDispatcher{}
	svc, store := newTestAlertService(t, dispatcher, nil)

	snapshot, err := svc.HandleGesture(1, models.TriggerSingleTap)
	require.NoError(t, err)

	assert.Equal(t, models.EventStateActive, snapshot.State)
	assert.Equal(t, 0, snapshot.Countdown)
	assert.False(t, snapshot.Silent)

	// 派发完成后自动解除
	waitFor(t, time.Second, func() bool {
		r := store.record(snapshot.EventID)
		return r != nil && r.State == models.EventStateResolved
	})
	assert.Equal(t, 1, dispatcher.callCount())

	r := store.record(snapshot.EventID)
	require.NotNil(t, r.EndedAt)
}

func TestDoubleTapIsSilentAndImmediate(t *testing.T) {
	dispatcher := &stubDispatcher{}
	svc, _ := newTestAlertService(t, dispatcher, nil)

	snapshot, err := svc.HandleGesture(1, models.TriggerDoubleTap)
	require.NoError(t, err)

	assert.Equal(t, models.EventStateActive, snapshot.State)
	assert.True(t, snapshot.Silent)
	assert.Equal(t, 0, snapshot.Countdown)
}

func TestHoldToArmStartsCountdownThenActivates(t *testing.T) {
	dispatcher := &stubDispatcher{}
	svc, store := newTestAlertService(t, dispatcher, nil)

	snapshot, err := svc.HandleGesture(1, models.TriggerHoldToArm)
	require.NoError(t, err)

	assert.Equal(t, models.EventStateArming, snapshot.State)
	assert.Equal(t, 3, snapshot.Countdown)

	// 倒计时结束后进入active并派发，且只派发一次
	waitFor(t, time.Second, func() bool {
		r := store.record(snapshot.EventID)
		return r != nil && r.State == models.EventStateResolved
	})
	assert.Equal(t, 1, dispatcher.callCount())
}

func TestCancelDuringArmingNeedsNoPin(t *testing.T) {
	dispatcher := &stubDispatcher{}
	settings := &stubSettings{
		settings: &models.UserSettings{UserID: 1, PinProtectCancel: true, CancelPinHash: "x"},
		pin:      "1234",
	}
	svc, store := newTestAlertService(t, dispatcher, settings)

	snapshot, err := svc.Activate(1, models.AlertLevelRed, models.TriggerManualSelect, false)
	require.NoError(t, err)
	require.Equal(t, models.EventStateArming, snapshot.State)

	// 倒计时阶段取消永远接受，PIN留空也可以
	decision, _ := svc.RequestCancel("")
	assert.True(t, decision.Accepted)

	waitFor(t, time.Second, func() bool {
		r := store.record(snapshot.EventID)
		return r != nil && r.State == models.EventStateCancelled
	})

	// 被取消的事件不应触发派发
	assert.Equal(t, 0, dispatcher.callCount())

	// 槽位已释放，可以立即发起下一次报警
	_, err = svc.Activate(1, models.AlertLevelYellow, models.TriggerManualSelect, false)
	assert.NoError(t, err)
}

func TestSecondActivationRejectedWhileInProgress(t *testing.T) {
	dispatcher := &stubDispatcher{delay: 200 * time.Millisecond}
	svc, _ := newTestAlertService(t, dispatcher, nil)

	_, err := svc.Activate(1, models.AlertLevelRed, models.TriggerSingleTap, false)
	require.NoError(t, err)

	// 进行中的事件未结束，新触发一律拒绝
	_, err = svc.Activate(1, models.AlertLevelOrange, models.TriggerSingleTap, false)
	assert.ErrorIs(t, err, models.ErrAlertInProgress)

	_, err = svc.HandleGesture(1, models.TriggerDoubleTap)
	assert.ErrorIs(t, err, models.ErrAlertInProgress)
}

func TestRedNonSilentActiveNotCancellable(t *testing.T) {
	dispatcher := &stubDispatcher{delay: 300 * time.Millisecond}
	svc, _ := newTestAlertService(t, dispatcher, nil)

	snapshot, err := svc.Activate(1, models.AlertLevelRed, models.TriggerSingleTap, false)
	require.NoError(t, err)
	require.Equal(t, models.EventStateActive, snapshot.State)

	decision, _ := svc.RequestCancel("")
	assert.False(t, decision.Accepted)
	assert.Equal(t, ReasonNotCancellable, decision.Reason)
}

func TestOrangeActiveCancelWithPin(t *testing.T) {
	stopped := make(chan struct{})
	dispatcher := &stubDispatcher{delay: 500 * time.Millisecond, stoppedCh: stopped}
	settings := &stubSettings{
		settings: &models.UserSettings{UserID: 1, PinProtectCancel: true, CancelPinHash: "x"},
		pin:      "1234",
	}
	svc, store := newTestAlertService(t, dispatcher, settings)

	snapshot, err := svc.Activate(1, models.AlertLevelOrange, models.TriggerSingleTap, false)
	require.NoError(t, err)
	require.Equal(t, models.EventStateActive, snapshot.State)

	// PIN错误时拒绝取消
	decision, _ := svc.RequestCancel("0000")
	assert.False(t, decision.Accepted)
	assert.Equal(t, ReasonIncorrectPin, decision.Reason)

	// PIN正确后取消被接受，派发中的动作被打断
	decision, _ = svc.RequestCancel("1234")
	assert.True(t, decision.Accepted)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("取消未能打断进行中的派发")
	}

	waitFor(t, time.Second, func() bool {
		r := store.record(snapshot.EventID)
		return r != nil && r.State == models.EventStateCancelled
	})
}

func TestCancelWithoutActiveAlert(t *testing.T) {
	svc, _ := newTestAlertService(t, &stubDispatcher{}, nil)

	decision, snapshot := svc.RequestCancel("")
	assert.False(t, decision.Accepted)
	assert.Equal(t, ReasonNoActiveAlert, decision.Reason)
	assert.Nil(t, snapshot)
}

func TestDegradedDispatchStillResolves(t *testing.T) {
	dispatcher := &stubDispatcher{outcome: DispatchOutcome{Dispatched: 2, Degraded: true}}
	svc, store := newTestAlertService(t, dispatcher, nil)

	snapshot, err := svc.Activate(1, models.AlertLevelRed, models.TriggerSingleTap, false)
	require.NoError(t, err)

	// 降级派发完成后事件照常自动解除
	waitFor(t, time.Second, func() bool {
		r := store.record(snapshot.EventID)
		return r != nil && r.State == models.EventStateResolved
	})
}

func TestVoiceTriggerMatchesPhrase(t *testing.T) {
	settings := &stubSettings{
		settings: &models.UserSettings{UserID: 1, VoiceActivation: true, VoicePhrase: "Emergency"},
	}
	svc, _ := newTestAlertService(t, &stubDispatcher{}, settings)

	// 大小写不敏感匹配
	snapshot, err := svc.TriggerVoice(1, "emergency")
	require.NoError(t, err)
	assert.Equal(t, models.TriggerVoicePhrase, snapshot.Trigger)
	assert.Equal(t, models.EventStateActive, snapshot.State)
}

func TestVoiceTriggerRejectsMismatch(t *testing.T) {
	settings := &stubSettings{
		settings: &models.UserSettings{UserID: 1, VoiceActivation: true, VoicePhrase: "Emergency"},
	}
	svc, _ := newTestAlertService(t, &stubDispatcher{}, settings)

	_, err := svc.TriggerVoice(1, "help me")
	assert.Error(t, err)

	// 未开启语音激活时同样拒绝
	settings.settings.VoiceActivation = false
	_, err = svc.TriggerVoice(1, "Emergency")
	assert.Error(t, err)
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	svc, _ := newTestAlertService(t, &stubDispatcher{}, nil)

	ch, cancel := svc.Subscribe()
	defer cancel()

	_, err := svc.Activate(1, models.AlertLevelYellow, models.TriggerSingleTap, false)
	require.NoError(t, err)

	select {
	case snapshot := <-ch:
		assert.Equal(t, models.AlertLevelYellow, snapshot.Level)
	case <-time.After(time.Second):
		t.Fatal("订阅方未收到状态快照")
	}
}

func TestActivateRejectsUnknownLevel(t *testing.T) {
	svc, _ := newTestAlertService(t, &stubDispatcher{}, nil)

	_, err := svc.Activate(1, models.AlertLevel("purple"), models.TriggerSingleTap, false)
	assert.Error(t, err)

	// 非法级别不应占用事件槽位
	_, ok := svc.Current()
	assert.False(t, ok)
}
