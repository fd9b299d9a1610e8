package services

import (
	"fmt"
	"sync"
	"time"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// DispatchAction 报警触发的处置动作
type DispatchAction string

const (
	ActionNotifyPolice      DispatchAction = "notify-police"
	ActionNotifyContacts    DispatchAction = "notify-contacts"
	ActionBroadcastLocation DispatchAction = "broadcast-location"
	ActionDispatchServices  DispatchAction = "dispatch-emergency-services"
	ActionShareLocation     DispatchAction = "share-location"
	ActionSendCheckin       DispatchAction = "send-checkin"
	ActionUpdateLocation    DispatchAction = "update-location"
)

// LevelPolicy 某个报警级别对应的处置策略
type LevelPolicy struct {
	Actions []DispatchAction
}

// SafetyLevelPolicy 各级别的处置动作表，动作按序派发
var SafetyLevelPolicy = map[models.AlertLevel]LevelPolicy{
	models.AlertLevelRed: {
		Actions: []DispatchAction{
			ActionNotifyPolice,
			ActionNotifyContacts,
			ActionBroadcastLocation,
			ActionDispatchServices,
		},
	},
	models.AlertLevelOrange: {
		Actions: []DispatchAction{
			ActionNotifyContacts,
			ActionShareLocation,
		},
	},
	models.AlertLevelYellow: {
		Actions: []DispatchAction{
			ActionSendCheckin,
			ActionUpdateLocation,
		},
	},
}

// Notifier 通知发送方
type Notifier interface {
	Send(channel, target string, payload map[string]interface{}) error
}

// Geolocator 位置提供方
type Geolocator interface {
	LastPosition(userID uint) (*models.Position, error)
}

// ShareCreator 位置共享创建方
type ShareCreator interface {
	CreateShare(userID uint, recipients []string, duration time.Duration, isPublic bool) (*models.LocationShare, error)
}

// ContactProvider 通知目标提供方
type ContactProvider interface {
	GetNotifyTargets(userID uint) ([]models.EmergencyContact, error)
}

// SettingsReader 设置读取方
type SettingsReader interface {
	GetSettings(userID uint) (*models.UserSettings, error)
}

// DispatchOutcome 一次派发的结果汇总
type DispatchOutcome struct {
	Dispatched int  `json:"dispatched"` // 成功派发的动作数
	Failed     int  `json:"failed"`     // 失败的动作数
	Degraded   bool `json:"degraded"`   // 位置不可用，降级派发
	Skipped    bool `json:"skipped"`    // 重复派发请求，已跳过
	Stopped    bool `json:"stopped"`    // 派发中途被取消打断
}

// InterfaceDispatchService defines the side-effect dispatcher interface
type InterfaceDispatchService interface {
	Dispatch(snapshot models.EventSnapshot, stop <-chan struct{}) DispatchOutcome
}

// DispatchService 处置动作派发器
// 报警激活后按级别策略逐个派发动作，动作之间留出间隔，
// 位置获取只做一次，失败则降级继续；同一事件只会派发一次
type DispatchService struct {
	Config   *config.Config
	Store    InterfaceAlertStore
	Notifier Notifier
	Geo      Geolocator
	Shares   ShareCreator
	Contacts ContactProvider
	Settings SettingsReader

	stagger    time.Duration
	dispatched *sync.Map // 已派发的事件ID，防止重复派发
}

// NewDispatchService 创建新的派发服务
func NewDispatchService(cfg *config.Config, store InterfaceAlertStore, notifier Notifier, geo Geolocator, shares ShareCreator, contacts ContactProvider, settings SettingsReader) InterfaceDispatchService {
	return &DispatchService{
		Config:     cfg,
		Store:      store,
		Notifier:   notifier,
		Geo:        geo,
		Shares:     shares,
		Contacts:   contacts,
		Settings:   settings,
		stagger:    cfg.DispatchStagger,
		dispatched: &sync.Map{},
	}
}

// Dispatch 为一次报警执行处置动作派发
// stop关闭时立即停止后续动作，已发出的动作不回收
func (s *DispatchService) Dispatch(snapshot models.EventSnapshot, stop <-chan struct{}) DispatchOutcome {
	outcome := DispatchOutcome{}

	// 同一事件只派发一次
	if _, loaded := s.dispatched.LoadOrStore(snapshot.EventID, time.Now()); loaded {
		outcome.Skipped = true
		return outcome
	}

	policy, ok := SafetyLevelPolicy[snapshot.Level]
	if !ok {
		config.Warning("未知报警级别 %s，事件 %s 无动作可派发", snapshot.Level, snapshot.EventID)
		return outcome
	}

	// 测试模式下只记录不实际发送
	testMode := false
	if settings, err := s.Settings.GetSettings(snapshot.UserID); err == nil && settings != nil {
		testMode = settings.TestMode
	}

	// 位置只获取一次，失败降级但不中断派发
	pos, err := s.Geo.LastPosition(snapshot.UserID)
	if err != nil || pos == nil {
		outcome.Degraded = true
		pos = nil
		config.Warning("事件 %s 位置不可用，降级派发: %v", snapshot.EventID, err)
	} else if s.Store != nil {
		_ = s.Store.SetRecordLocation(snapshot.EventID, pos.Latitude, pos.Longitude)
	}

	for i, action := range policy.Actions {
		// 动作之间留出间隔，期间响应取消
		if i > 0 && s.stagger > 0 {
			timer := time.NewTimer(s.stagger)
			select {
			case <-stop:
				timer.Stop()
				outcome.Stopped = true
				config.Info("事件 %s 派发被取消，剩余 %d 个动作未执行", snapshot.EventID, len(policy.Actions)-i)
				return outcome
			case <-timer.C:
			}
		} else {
			select {
			case <-stop:
				outcome.Stopped = true
				return outcome
			default:
			}
		}

		if err := s.executeAction(action, snapshot, pos, testMode); err != nil {
			outcome.Failed++
			config.Error("事件 %s 动作 %s 派发失败: %v", snapshot.EventID, action, err)
		} else {
			outcome.Dispatched++
		}
	}

	return outcome
}

// executeAction 执行单个处置动作
func (s *DispatchService) executeAction(action DispatchAction, snapshot models.EventSnapshot, pos *models.Position, testMode bool) error {
	switch action {
	case ActionNotifyPolice, ActionDispatchServices:
		return s.notifyPolice(action, snapshot, pos, testMode)
	case ActionNotifyContacts:
		return s.notifyContacts(action, snapshot, pos, testMode, "emergency")
	case ActionSendCheckin:
		return s.notifyContacts(action, snapshot, pos, testMode, "checkin")
	case ActionBroadcastLocation:
		return s.shareLocation(action, snapshot, testMode, true)
	case ActionShareLocation:
		return s.shareLocation(action, snapshot, testMode, false)
	case ActionUpdateLocation:
		return s.logLocationUpdate(action, snapshot, pos)
	default:
		return fmt.Errorf("未知的处置动作: %s", action)
	}
}

// notifyPolice 通知警方或急救服务
func (s *DispatchService) notifyPolice(action DispatchAction, snapshot models.EventSnapshot, pos *models.Position, testMode bool) error {
	payload := map[string]interface{}{
		"event_id": snapshot.EventID,
		"level":    snapshot.Level,
		"silent":   snapshot.Silent,
	}
	if pos != nil {
		payload["latitude"] = pos.Latitude
		payload["longitude"] = pos.Longitude
	} else {
		payload["location"] = "unavailable"
	}

	target := s.Config.PoliceDispatchNumber
	var err error
	if !testMode {
		err = s.Notifier.Send(ChannelCall, target, payload)
	}

	s.logDispatch(snapshot.EventID, action, ChannelCall, target, err, testMode)
	return err
}

// notifyContacts 按优先级逐个通知紧急联系人
func (s *DispatchService) notifyContacts(action DispatchAction, snapshot models.EventSnapshot, pos *models.Position, testMode bool, kind string) error {
	contacts, err := s.Contacts.GetNotifyTargets(snapshot.UserID)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		s.logDispatch(snapshot.EventID, action, ChannelSMS, "", fmt.Errorf("无紧急联系人"), testMode)
		return nil
	}

	payload := map[string]interface{}{
		"event_id": snapshot.EventID,
		"level":    snapshot.Level,
		"kind":     kind,
	}
	if pos != nil {
		payload["latitude"] = pos.Latitude
		payload["longitude"] = pos.Longitude
	}

	var firstErr error
	for _, contact := range contacts {
		channel := ChannelSMS
		target := contact.PhoneNumber
		if kind == "checkin" {
			channel = ChannelPush
		}
		if target == "" {
			channel = ChannelEmail
			target = contact.Email
		}

		var sendErr error
		if !testMode {
			sendErr = s.Notifier.Send(channel, target, payload)
		}
		if sendErr != nil && firstErr == nil {
			firstErr = sendErr
		}
		s.logDispatch(snapshot.EventID, action, channel, target, sendErr, testMode)
	}
	return firstErr
}

// shareLocation 创建位置共享并把链接发给联系人
func (s *DispatchService) shareLocation(action DispatchAction, snapshot models.EventSnapshot, testMode bool, isPublic bool) error {
	contacts, err := s.Contacts.GetNotifyTargets(snapshot.UserID)
	if err != nil {
		return err
	}

	recipients := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if c.PhoneNumber != "" {
			recipients = append(recipients, c.PhoneNumber)
		}
	}

	share, err := s.Shares.CreateShare(snapshot.UserID, recipients, s.Config.ShareDefaultTTL, isPublic)
	if err != nil {
		s.logDispatch(snapshot.EventID, action, ChannelPush, "", err, testMode)
		return err
	}

	payload := map[string]interface{}{
		"event_id":    snapshot.EventID,
		"share_token": share.Token,
		"expires_at":  share.ExpiresAt,
	}

	var firstErr error
	for _, r := range recipients {
		var sendErr error
		if !testMode {
			sendErr = s.Notifier.Send(ChannelSMS, r, payload)
		}
		if sendErr != nil && firstErr == nil {
			firstErr = sendErr
		}
		s.logDispatch(snapshot.EventID, action, ChannelSMS, r, sendErr, testMode)
	}
	return firstErr
}

// logLocationUpdate 记录一次位置更新动作
func (s *DispatchService) logLocationUpdate(action DispatchAction, snapshot models.EventSnapshot, pos *models.Position) error {
	detail := "位置不可用"
	if pos != nil {
		detail = fmt.Sprintf("%.6f,%.6f", pos.Latitude, pos.Longitude)
	}
	if s.Store != nil {
		_ = s.Store.RecordDispatch(&models.DispatchLog{
			EventID: snapshot.EventID,
			Action:  string(action),
			Channel: "internal",
			Success: pos != nil,
			Detail:  detail,
		})
	}
	return nil
}

// logDispatch 落库一条派发日志
func (s *DispatchService) logDispatch(eventID string, action DispatchAction, channel, target string, sendErr error, testMode bool) {
	if s.Store == nil {
		return
	}

	detail := ""
	if testMode {
		detail = "测试模式，未实际发送"
	} else if sendErr != nil {
		detail = sendErr.Error()
	}

	_ = s.Store.RecordDispatch(&models.DispatchLog{
		EventID: eventID,
		Action:  string(action),
		Channel: channel,
		Target:  target,
		Success: sendErr == nil,
		Detail:  detail,
	})
}
