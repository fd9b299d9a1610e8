package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// 报警控制信号类型
type AlertControlSignal int

const (
	SignalCancel AlertControlSignal = iota
	SignalDispatchDone
)

// AlertControlMessage 报警控制消息
type AlertControlMessage struct {
	Signal  AlertControlSignal
	Reason  string
	Outcome DispatchOutcome
}

// InterfaceAlertService 定义报警状态机服务接口
type InterfaceAlertService interface {
	HandleGesture(userID uint, trigger models.TriggerType) (*models.EventSnapshot, error)
	Activate(userID uint, level models.AlertLevel, trigger models.TriggerType, silent bool) (*models.EventSnapshot, error)
	TriggerVoice(userID uint, phrase string) (*models.EventSnapshot, error)
	RequestCancel(enteredPin string) (GuardDecision, *models.EventSnapshot)
	Current() (*models.EventSnapshot, bool)
	History(userID uint, pagination *models.PaginationQuery) ([]models.AlertRecord, int64, error)
	DispatchLogs(eventID string) ([]models.DispatchLog, error)
	Subscribe() (<-chan models.EventSnapshot, func())
	SetStatusPublisher(publish func(models.EventSnapshot))
}

// AlertService 报警状态机
// 每个报警事件由独立的goroutine驱动：倒计时、激活、派发、自动解除
// 全程在同一个select循环内推进，取消信号通过控制通道送入，
// 保证同一事件的状态迁移全序且不会竞争
type AlertService struct {
	Config     *config.Config
	Manager    *models.AlertManager
	Store      InterfaceAlertStore
	Dispatcher InterfaceDispatchService
	Guard      InterfaceGuardService
	Settings   InterfaceSettingsService

	// 每个报警事件的控制通道
	eventChannels *sync.Map

	subMu       sync.Mutex
	subscribers map[int]chan models.EventSnapshot
	nextSubID   int

	publishMu sync.RWMutex
	publish   func(models.EventSnapshot)
}

// NewAlertService 创建新的报警状态机服务
func NewAlertService(cfg *config.Config, store InterfaceAlertStore, dispatcher InterfaceDispatchService, guard InterfaceGuardService, settings InterfaceSettingsService) InterfaceAlertService {
	return &AlertService{
		Config:        cfg,
		Manager:       models.NewAlertManager(),
		Store:         store,
		Dispatcher:    dispatcher,
		Guard:         guard,
		Settings:      settings,
		eventChannels: &sync.Map{},
		subscribers:   make(map[int]chan models.EventSnapshot),
	}
}

// SetStatusPublisher 设置状态对外广播回调（如MQTT发布）
func (s *AlertService) SetStatusPublisher(publish func(models.EventSnapshot)) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.publish = publish
}

// HandleGesture 处理手势分类结果，按手势映射级别和倒计时
func (s *AlertService) HandleGesture(userID uint, trigger models.TriggerType) (*models.EventSnapshot, error) {
	switch trigger {
	case models.TriggerSingleTap:
		// 单击：立即激活
		return s.Activate(userID, models.AlertLevelRed, trigger, false)
	case models.TriggerDoubleTap:
		// 双击：静默立即激活，不走倒计时
		return s.Activate(userID, models.AlertLevelRed, trigger, true)
	case models.TriggerHoldToArm:
		// 长按：进入倒计时
		return s.Activate(userID, models.AlertLevelRed, trigger, false)
	default:
		return nil, fmt.Errorf("未知的手势类型: %s", trigger)
	}
}

// TriggerVoice 语音短语触发，需要用户开启语音激活且短语匹配
func (s *AlertService) TriggerVoice(userID uint, phrase string) (*models.EventSnapshot, error) {
	settings, err := s.Settings.GetSettings(userID)
	if err != nil {
		return nil, err
	}
	if !settings.VoiceActivation {
		return nil, fmt.Errorf("语音激活未开启")
	}
	if !strings.EqualFold(strings.TrimSpace(phrase), strings.TrimSpace(settings.VoicePhrase)) {
		return nil, fmt.Errorf("语音短语不匹配")
	}
	return s.Activate(userID, models.AlertLevelRed, models.TriggerVoicePhrase, false)
}

// countdownFor 按触发方式决定倒计时时长
// 长按和手动选级给出撤回窗口，其余触发立即激活
func (s *AlertService) countdownFor(trigger models.TriggerType) int {
	switch trigger {
	case models.TriggerHoldToArm, models.TriggerManualSelect:
		return s.Config.AlertCountdownSeconds
	default:
		return 0
	}
}

// Activate 发起一次报警
// 同一时间只允许一个报警事件存在，进行中的事件未结束时拒绝新触发
func (s *AlertService) Activate(userID uint, level models.AlertLevel, trigger models.TriggerType, silent bool) (*models.EventSnapshot, error) {
	if _, ok := SafetyLevelPolicy[level]; !ok {
		return nil, fmt.Errorf("未知的报警级别: %s", level)
	}

	event := models.NewEmergencyEvent(uuid.New().String(), userID, level, trigger, silent)
	event.SetCountdown(s.countdownFor(trigger))

	if err := s.Manager.BeginEvent(event); err != nil {
		return nil, err
	}

	if event.GetCountdown() > 0 {
		event.SetState(models.EventStateArming)
	} else {
		event.SetState(models.EventStateActive)
	}

	snapshot := event.Snapshot()
	if err := s.Store.CreateRecord(snapshot); err != nil {
		config.Error("报警记录落库失败: %v", err)
	}

	// 控制通道带缓冲，发送方不会被阻塞
	ctrl := make(chan AlertControlMessage, 8)
	s.eventChannels.Store(event.EventID, ctrl)

	go s.runEvent(event, ctrl)

	config.Info("报警事件已创建: id=%s user=%d level=%s trigger=%s silent=%v countdown=%d",
		event.EventID, userID, level, trigger, silent, snapshot.Countdown)

	s.notify(snapshot)
	return &snapshot, nil
}

// runEvent 驱动单个报警事件的完整生命周期
func (s *AlertService) runEvent(event *models.EmergencyEvent, ctrl chan AlertControlMessage) {
	defer s.eventChannels.Delete(event.EventID)

	// 倒计时阶段
	if event.GetState() == models.EventStateArming {
		remaining := event.GetCountdown()
		ticker := time.NewTicker(s.Config.AlertCountdownTick)

		for remaining > 0 {
			select {
			case <-ticker.C:
				remaining--
				event.SetCountdown(remaining)
				s.notify(event.Snapshot())
			case msg := <-ctrl:
				if msg.Signal == SignalCancel {
					ticker.Stop()
					s.finalize(event, models.EventStateCancelled, msg.Reason)
					return
				}
			}
		}
		ticker.Stop()

		// 倒计时归零，进入激活态；这条路径只会走到一次
		event.SetState(models.EventStateActive)
		s.updateRecord(event, models.EventStateActive, "")
		s.notify(event.Snapshot())
	} else {
		// 立即触发：创建时已是激活态
		s.updateRecord(event, models.EventStateActive, "")
	}

	// 激活阶段：派发在子goroutine中进行，本循环保持对取消信号的响应
	stopDispatch := make(chan struct{})
	go func() {
		outcome := s.Dispatcher.Dispatch(event.Snapshot(), stopDispatch)
		select {
		case ctrl <- AlertControlMessage{Signal: SignalDispatchDone, Outcome: outcome}:
		default:
		}
	}()

	var resolveC <-chan time.Time
	var resolveTimer *time.Timer

	for {
		select {
		case msg := <-ctrl:
			switch msg.Signal {
			case SignalDispatchDone:
				if msg.Outcome.Degraded {
					config.Warning("事件 %s 降级派发完成: 成功=%d 失败=%d",
						event.EventID, msg.Outcome.Dispatched, msg.Outcome.Failed)
				} else {
					config.Info("事件 %s 派发完成: 成功=%d 失败=%d",
						event.EventID, msg.Outcome.Dispatched, msg.Outcome.Failed)
				}
				// 派发完成后延迟自动解除
				resolveTimer = time.NewTimer(s.Config.AlertResolveDelay)
				resolveC = resolveTimer.C
			case SignalCancel:
				close(stopDispatch)
				if resolveTimer != nil {
					resolveTimer.Stop()
				}
				s.finalize(event, models.EventStateCancelled, msg.Reason)
				return
			}
		case <-resolveC:
			s.finalize(event, models.EventStateResolved, "")
			return
		}
	}
}

// finalize 结束事件：更新状态、落库、释放当前事件槽位
func (s *AlertService) finalize(event *models.EmergencyEvent, state models.EventState, reason string) {
	event.SetState(state)
	s.updateRecord(event, state, reason)
	s.Manager.Release(event.EventID)
	s.notify(event.Snapshot())

	config.Info("报警事件已结束: id=%s state=%s reason=%s", event.EventID, state, reason)
}

func (s *AlertService) updateRecord(event *models.EmergencyEvent, state models.EventState, reason string) {
	var endedAt *time.Time
	if state.Terminal() {
		now := time.Now()
		endedAt = &now
	}
	if err := s.Store.UpdateRecordState(event.EventID, state, reason, endedAt); err != nil {
		config.Error("报警记录状态更新失败: %v", err)
	}
}

// RequestCancel 请求取消当前报警，由取消守卫裁决
// 已经发出的处置动作无法收回，取消只会拦截剩余动作
func (s *AlertService) RequestCancel(enteredPin string) (GuardDecision, *models.EventSnapshot) {
	event, ok := s.Manager.Current()
	if !ok {
		return GuardDecision{Accepted: false, Reason: ReasonNoActiveAlert}, nil
	}

	snapshot := event.Snapshot()
	decision := s.Guard.RequestCancel(snapshot, enteredPin)
	if !decision.Accepted {
		config.Warning("取消请求被拒绝: event=%s reason=%s", snapshot.EventID, decision.Reason)
		return decision, &snapshot
	}

	// 送取消信号到事件goroutine，通道已满或已关闭时说明事件正在结束
	if value, ok := s.eventChannels.Load(snapshot.EventID); ok {
		ctrl := value.(chan AlertControlMessage)
		select {
		case ctrl <- AlertControlMessage{Signal: SignalCancel, Reason: "user-cancelled"}:
		default:
			config.Warning("取消信号投递失败，事件可能已结束: %s", snapshot.EventID)
		}
	}

	return decision, &snapshot
}

// Current 获取当前进行中的报警事件
func (s *AlertService) Current() (*models.EventSnapshot, bool) {
	event, ok := s.Manager.Current()
	if !ok {
		return nil, false
	}
	snapshot := event.Snapshot()
	return &snapshot, true
}

// History 分页查询报警历史
func (s *AlertService) History(userID uint, pagination *models.PaginationQuery) ([]models.AlertRecord, int64, error) {
	return s.Store.ListRecords(userID, pagination)
}

// DispatchLogs 查询某次报警的派发日志
func (s *AlertService) DispatchLogs(eventID string) ([]models.DispatchLog, error) {
	return s.Store.ListDispatchLogs(eventID)
}

// Subscribe 订阅状态快照流，返回取消订阅函数
func (s *AlertService) Subscribe() (<-chan models.EventSnapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan models.EventSnapshot, 16)
	s.subscribers[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notify 向所有订阅方和对外广播回调推送状态快照
func (s *AlertService) notify(snapshot models.EventSnapshot) {
	s.subMu.Lock()
	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// 订阅方消费过慢时丢弃，不阻塞状态机
		}
	}
	s.subMu.Unlock()

	s.publishMu.RLock()
	publish := s.publish
	s.publishMu.RUnlock()
	if publish != nil {
		publish(snapshot)
	}
}
