package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"guardian-angel-http-service/models"
)

// triggerRecorder 收集分类器的输出
type triggerRecorder struct {
	mu       sync.Mutex
	triggers []models.TriggerType
}

func (r *triggerRecorder) emit(trigger models.TriggerType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
}

func (r *triggerRecorder) all() []models.TriggerType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TriggerType, len(r.triggers))
	copy(out, r.triggers)
	return out
}

func newTestGesture() (*GestureService, *triggerRecorder) {
	recorder := &triggerRecorder{}
	svc := NewGestureService(testConfig()).(*GestureService)
	svc.SetEmitter(recorder.emit)
	return svc, recorder
}

func TestSingleTapEmittedAfterWindow(t *testing.T) {
	svc, recorder := newTestGesture()

	svc.Press()
	svc.Release()

	// 窗口未到期前不应有输出
	assert.Empty(t, recorder.all())

	waitFor(t, time.Second, func() bool { return len(recorder.all()) == 1 })
	assert.Equal(t, []models.TriggerType{models.TriggerSingleTap}, recorder.all())
}

func TestDoubleTapSuppressesSingleTap(t *testing.T) {
	svc, recorder := newTestGesture()

	svc.Press()
	svc.Release()
	// 窗口内第二次按下
	time.Sleep(10 * time.Millisecond)
	svc.Press()
	svc.Release()

	waitFor(t, time.Second, func() bool { return len(recorder.all()) == 1 })

	// 只产生一次双击，单击判定被取消
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []models.TriggerType{models.TriggerDoubleTap}, recorder.all())
}

func TestTwoSlowTapsAreTwoSingleTaps(t *testing.T) {
	svc, recorder := newTestGesture()

	svc.Press()
	svc.Release()
	waitFor(t, time.Second, func() bool { return len(recorder.all()) == 1 })

	// 窗口外的第二次点按是新的单击
	svc.Press()
	svc.Release()
	waitFor(t, time.Second, func() bool { return len(recorder.all()) == 2 })

	assert.Equal(t, []models.TriggerType{models.TriggerSingleTap, models.TriggerSingleTap}, recorder.all())
}

func TestHoldFiresAtThreshold(t *testing.T) {
	svc, recorder := newTestGesture()

	svc.Press()
	waitFor(t, time.Second, func() bool { return len(recorder.all()) == 1 })
	assert.Equal(t, []models.TriggerType{models.TriggerHoldToArm}, recorder.all())

	// 长按后的松开不再产生tap
	svc.Release()
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, recorder.all(), 1)
}

func TestEarlyReleaseCancelsHold(t *testing.T) {
	svc, recorder := newTestGesture()

	svc.Press()
	time.Sleep(20 * time.Millisecond)
	svc.Release()

	// 提前松开：长按不触发，只有单击
	waitFor(t, time.Second, func() bool { return len(recorder.all()) == 1 })
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []models.TriggerType{models.TriggerSingleTap}, recorder.all())
}

func TestResetClearsPendingTimers(t *testing.T) {
	svc, recorder := newTestGesture()

	svc.Press()
	svc.Release()
	svc.Reset()

	// Reset后窗口内的判定全部作废
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, recorder.all())

	// Reset后分类器可以继续使用
	svc.Press()
	svc.Release()
	waitFor(t, time.Second, func() bool { return len(recorder.all()) == 1 })
	assert.Equal(t, []models.TriggerType{models.TriggerSingleTap}, recorder.all())
}

func TestReleaseWithoutPressIgnored(t *testing.T) {
	svc, recorder := newTestGesture()

	svc.Release()
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, recorder.all())
}
