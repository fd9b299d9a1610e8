package container

import (
	"log"
	"sync"

	"gorm.io/gorm"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
	"guardian-angel-http-service/services"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 基础服务
	jwtService   services.InterfaceJWTService
	redisService services.InterfaceRedisService
	mqttService  services.InterfaceMQTTService

	// 报警核心服务
	alertService    services.InterfaceAlertService
	guardService    services.InterfaceGuardService
	dispatchService services.InterfaceDispatchService
	gestureRegistry *services.GestureRegistry

	// 业务服务
	userService     services.InterfaceUserService
	contactService  services.InterfaceContactService
	settingsService services.InterfaceSettingsService
	locationService services.InterfaceLocationService
	incidentService services.InterfaceIncidentService
	safetyService   services.InterfaceSafetyService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)
	c.redisService = services.NewRedisService(c.config)

	// 测试Redis连接
	if err := c.redisService.Ping(); err != nil {
		log.Printf("Redis连接测试失败: %v，缓存功能可能不可用", err)
	}

	// 初始化MQTT服务并连接
	c.mqttService = services.NewMQTTService(c.config)
	if err := c.mqttService.Connect(); err != nil {
		log.Printf("MQTT服务连接失败: %v", err)
	}

	// 初始化业务服务
	c.userService = services.NewUserService(c.db, c.config)
	c.contactService = services.NewContactService(c.db, c.config)
	c.settingsService = services.NewSettingsService(c.db, c.config, c.redisService)
	c.locationService = services.NewLocationService(c.db, c.config, c.redisService)
	c.incidentService = services.NewIncidentService(c.db, c.config)
	c.safetyService = services.NewSafetyService(c.config, c.incidentService)

	// 初始化报警核心服务
	alertStore := services.NewGormAlertStore(c.db)
	c.guardService = services.NewGuardService(c.config, c.settingsService)
	c.dispatchService = services.NewDispatchService(
		c.config,
		alertStore,
		c.mqttService,
		c.locationService,
		c.locationService,
		c.contactService,
		c.settingsService,
	)
	c.alertService = services.NewAlertService(c.config, alertStore, c.dispatchService, c.guardService, c.settingsService)

	// 报警状态变化通过MQTT对外广播
	c.alertService.SetStatusPublisher(func(snapshot models.EventSnapshot) {
		if err := c.mqttService.PublishAlertStatus(snapshot); err != nil {
			log.Printf("报警状态广播失败: %v", err)
		}
	})

	// 手势分类结果送入状态机
	c.gestureRegistry = services.NewGestureRegistry(c.config, func(userID uint, trigger models.TriggerType) {
		if _, err := c.alertService.HandleGesture(userID, trigger); err != nil {
			log.Printf("手势触发报警失败: user=%d trigger=%s err=%v", userID, trigger, err)
		}
	})

	// 穿戴设备按键和语音事件通过MQTT进入
	c.mqttService.SetButtonHandler(func(userID uint, action string) {
		classifier := c.gestureRegistry.For(userID)
		switch action {
		case "press":
			classifier.Press()
		case "release":
			classifier.Release()
		default:
			log.Printf("未知的按键动作: %s", action)
		}
	})
	c.mqttService.SetVoiceHandler(func(userID uint, phrase string) {
		if _, err := c.alertService.TriggerVoice(userID, phrase); err != nil {
			log.Printf("语音触发报警失败: user=%d err=%v", userID, err)
		}
	})
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "mqtt":
		return c.mqttService
	case "alert":
		return c.alertService
	case "guard":
		return c.guardService
	case "dispatch":
		return c.dispatchService
	case "gesture":
		return c.gestureRegistry
	case "user":
		return c.userService
	case "contact":
		return c.contactService
	case "settings":
		return c.settingsService
	case "location":
		return c.locationService
	case "incident":
		return c.incidentService
	case "safety":
		return c.safetyService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
