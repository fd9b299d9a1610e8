package services

import (
	"sync"
	"time"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// InterfaceGestureService defines the gesture classifier interface
type InterfaceGestureService interface {
	Press()
	Release()
	SetEmitter(emit func(models.TriggerType))
	Reset()
}

// GestureService 手势分类器
// 将按下/松开事件流归类为单击、双击(静默)、长按三种手势，
// 每个完整手势只产生一次分类结果
type GestureService struct {
	Config *config.Config

	tapWindow    time.Duration // 双击判定窗口，默认300ms
	holdDuration time.Duration // 长按判定时长，默认3s

	emit func(models.TriggerType)

	mu        sync.Mutex
	pressed   bool
	holdFired bool        // 长按已触发，后续的release不再产生tap
	doubleTap bool        // 窗口内出现第二次按下
	holdTimer *time.Timer // 长按计时器
	tapTimer  *time.Timer // 单击窗口计时器，与长按计时器互斥活跃
}

// NewGestureService 创建一个新的手势分类服务
func NewGestureService(cfg *config.Config) InterfaceGestureService {
	return &GestureService{
		Config:       cfg,
		tapWindow:    cfg.GestureTapWindow,
		holdDuration: cfg.GestureHoldDuration,
		emit:         func(models.TriggerType) {},
	}
}

// SetEmitter 设置分类结果的接收方
func (s *GestureService) SetEmitter(emit func(models.TriggerType)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emit
}

// Press 处理按下事件
func (s *GestureService) Press() {
	s.mu.Lock()

	// 单击窗口还开着，说明这是双击的第二次按下：
	// 取消待定的单击判定，改走双击路径（单一计时器取消路径，不会双发）
	if s.tapTimer != nil {
		s.tapTimer.Stop()
		s.tapTimer = nil
		s.doubleTap = true
	}

	s.pressed = true
	s.holdFired = false

	// 启动长按计时器，满时长立即触发，与tap计时器无关
	s.holdTimer = time.AfterFunc(s.holdDuration, s.fireHold)

	s.mu.Unlock()
}

// Release 处理松开事件
func (s *GestureService) Release() {
	s.mu.Lock()

	if !s.pressed {
		s.mu.Unlock()
		return
	}
	s.pressed = false

	// 提前松开：撤销长按判定
	if s.holdTimer != nil {
		s.holdTimer.Stop()
		s.holdTimer = nil
	}

	// 长按已经触发过，本次松开只是收尾
	if s.holdFired {
		s.holdFired = false
		s.mu.Unlock()
		return
	}

	// 双击的第二次松开
	if s.doubleTap {
		s.doubleTap = false
		emit := s.emit
		s.mu.Unlock()
		emit(models.TriggerDoubleTap)
		return
	}

	// 第一次松开：打开单击窗口，窗口内无第二次按下则判定为单击
	s.tapTimer = time.AfterFunc(s.tapWindow, s.fireSingleTap)

	s.mu.Unlock()
}

// fireHold 长按计时器到期
func (s *GestureService) fireHold() {
	s.mu.Lock()

	if !s.pressed || s.holdTimer == nil {
		s.mu.Unlock()
		return
	}
	s.holdTimer = nil
	s.holdFired = true
	s.doubleTap = false
	emit := s.emit

	s.mu.Unlock()
	emit(models.TriggerHoldToArm)
}

// fireSingleTap 单击窗口到期
func (s *GestureService) fireSingleTap() {
	s.mu.Lock()

	if s.tapTimer == nil {
		s.mu.Unlock()
		return
	}
	s.tapTimer = nil
	emit := s.emit

	s.mu.Unlock()
	emit(models.TriggerSingleTap)
}

// Reset 清理所有待定的计时器和状态
func (s *GestureService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holdTimer != nil {
		s.holdTimer.Stop()
		s.holdTimer = nil
	}
	if s.tapTimer != nil {
		s.tapTimer.Stop()
		s.tapTimer = nil
	}
	s.pressed = false
	s.holdFired = false
	s.doubleTap = false
}
