package services

import (
	"sync"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// GestureRegistry 按用户维护手势分类器
// 每个用户一个独立的分类器实例，分类结果带上用户ID转发给接收方
type GestureRegistry struct {
	Config *config.Config

	mu          sync.Mutex
	classifiers map[uint]InterfaceGestureService
	emit        func(userID uint, trigger models.TriggerType)
}

// NewGestureRegistry 创建手势分类器注册表
func NewGestureRegistry(cfg *config.Config, emit func(userID uint, trigger models.TriggerType)) *GestureRegistry {
	return &GestureRegistry{
		Config:      cfg,
		classifiers: make(map[uint]InterfaceGestureService),
		emit:        emit,
	}
}

// For 获取用户的分类器，不存在时创建
func (r *GestureRegistry) For(userID uint) InterfaceGestureService {
	r.mu.Lock()
	defer r.mu.Unlock()

	classifier, exists := r.classifiers[userID]
	if !exists {
		classifier = NewGestureService(r.Config)
		classifier.SetEmitter(func(trigger models.TriggerType) {
			r.emit(userID, trigger)
		})
		r.classifiers[userID] = classifier
	}
	return classifier
}
