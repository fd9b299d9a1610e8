package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// InterfaceMQTTService 定义MQTT传输服务接口
type InterfaceMQTTService interface {
	Connect() error
	Disconnect()
	SubscribeToTopics() error
	PublishAlertStatus(snapshot models.EventSnapshot) error
	PublishSystemMessage(messageType string, message map[string]interface{}) error
	Send(channel, target string, payload map[string]interface{}) error
	SetButtonHandler(handler func(userID uint, action string))
	SetVoiceHandler(handler func(userID uint, phrase string))
	Connected() bool
}

// MQTTService 负责与穿戴设备和通知通道之间的MQTT通信
type MQTTService struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	TopicHandlers  map[string]mqtt.MessageHandler
	ProcessedMsgs  *sync.Map  // 用于记录已处理的消息，防止重复处理
	PublishMutex   sync.Mutex // 用于保护MQTT消息发布

	buttonHandler func(userID uint, action string)
	voiceHandler  func(userID uint, phrase string)
	handlerMutex  sync.RWMutex
}

// 主题常量
const (
	// 穿戴设备按键事件主题
	TopicButtonEvents = "guardian/button/events"

	// 语音触发事件主题
	TopicVoiceEvents = "guardian/voice/events"

	// 报警状态广播主题
	TopicAlertStatus = "guardian/alert/status"

	// 通知派发主题前缀，完整主题为 guardian/notify/<channel>
	TopicNotifyPrefix = "guardian/notify/"

	// 系统消息主题
	TopicSystemMessage = "guardian/system"
)

// 通知通道常量
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelCall  = "call"
)

// 消息结构体定义
type (
	// ButtonEventMessage 穿戴设备按键事件
	ButtonEventMessage struct {
		EventID   string `json:"event_id,omitempty"`
		UserID    uint   `json:"user_id"`
		Action    string `json:"action"` // press/release
		Timestamp int64  `json:"timestamp"`
	}

	// VoiceEventMessage 语音识别事件
	VoiceEventMessage struct {
		EventID   string `json:"event_id,omitempty"`
		UserID    uint   `json:"user_id"`
		Phrase    string `json:"phrase"`
		Timestamp int64  `json:"timestamp"`
	}

	// NotifyMessage 通知派发消息
	NotifyMessage struct {
		Channel   string                 `json:"channel"`
		Target    string                 `json:"target"`
		Payload   map[string]interface{} `json:"payload"`
		Timestamp int64                  `json:"timestamp"`
	}

	// SystemMessage 系统消息
	SystemMessage struct {
		Type      string      `json:"type"`
		Level     string      `json:"level"` // info/warning/error
		Message   string      `json:"message"`
		Data      interface{} `json:"data,omitempty"`
		Timestamp int64       `json:"timestamp"`
	}
)

// NewMQTTService 创建一个新的MQTT服务实现
func NewMQTTService(cfg *config.Config) InterfaceMQTTService {
	service := &MQTTService{
		Config:        cfg,
		IsConnected:   false,
		ProcessedMsgs: &sync.Map{},
	}

	// 设置MQTT客户端
	service.setupMQTTClient()

	// 设置主题处理程序
	service.setupTopicHandlers()

	// 启动消息去重清理任务
	go service.startMsgCleanupTask()

	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s-%d", s.Config.MQTTClientID, uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	opts.SetDefaultPublishHandler(func(client mqtt.Client, msg mqtt.Message) {
		log.Printf("[MQTT] 收到未处理的消息: topic=%s", msg.Topic())
	})

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") || s.Config.MQTTSSLEnabled {
		log.Println("[MQTT] 使用TLS连接")
		tlsConfig := &tls.Config{
			InsecureSkipVerify: true, // 默认跳过验证，如有CA证书则使用
		}

		if s.Config.MQTTCACertPath != "" {
			log.Printf("[MQTT] 使用CA证书: %s", s.Config.MQTTCACertPath)
		}

		opts.SetTLSConfig(tlsConfig)
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] 连接丢失: %v", err)
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("[MQTT] 成功连接到", s.Config.MQTTBrokerURL)
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()

		// 订阅主题
		if err := s.SubscribeToTopics(); err != nil {
			log.Printf("[MQTT] 订阅主题失败: %v", err)
		}
	})

	// 设置重连回调
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		log.Println("[MQTT] 正在尝试重连...")
	})

	// 创建客户端
	s.Client = mqtt.NewClient(opts)
}

// setupTopicHandlers 设置主题处理程序
func (s *MQTTService) setupTopicHandlers() {
	s.TopicHandlers = map[string]mqtt.MessageHandler{
		TopicButtonEvents: s.handleButtonEvent,
		TopicVoiceEvents:  s.handleVoiceEvent,
	}
}

// SetButtonHandler 设置按键事件回调
func (s *MQTTService) SetButtonHandler(handler func(userID uint, action string)) {
	s.handlerMutex.Lock()
	defer s.handlerMutex.Unlock()
	s.buttonHandler = handler
}

// SetVoiceHandler 设置语音事件回调
func (s *MQTTService) SetVoiceHandler(handler func(userID uint, phrase string)) {
	s.handlerMutex.Lock()
	defer s.handlerMutex.Unlock()
	s.voiceHandler = handler
}

// Connect 连接到MQTT服务器，带有重试机制
func (s *MQTTService) Connect() error {
	log.Printf("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	// 加锁，确保同一时间只有一个连接尝试
	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	// 如果已连接，直接返回
	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	// 添加最大重试次数和指数退避策略
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.connectedMutex.Lock()
			s.IsConnected = true
			s.connectedMutex.Unlock()
			log.Printf("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		log.Printf("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (s *MQTTService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// Connected 返回当前连接状态
func (s *MQTTService) Connected() bool {
	s.connectedMutex.RLock()
	defer s.connectedMutex.RUnlock()
	return s.IsConnected && s.Client != nil && s.Client.IsConnected()
}

// SubscribeToTopics 订阅相关主题
func (s *MQTTService) SubscribeToTopics() error {
	// 使用QoS 1确保消息至少被传递一次
	qos := byte(1)

	for topic, handler := range s.TopicHandlers {
		if token := s.Client.Subscribe(topic, qos, handler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("订阅主题失败 [%s]: %v", topic, token.Error())
		}
		log.Printf("[MQTT] 已订阅主题: %s", topic)
	}
	return nil
}

// handleButtonEvent 处理穿戴设备按键事件
func (s *MQTTService) handleButtonEvent(client mqtt.Client, msg mqtt.Message) {
	var event ButtonEventMessage
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		log.Printf("[MQTT] 按键事件解析失败: %v", err)
		return
	}

	// 去重：同一事件ID只处理一次
	if event.EventID != "" {
		if _, loaded := s.ProcessedMsgs.LoadOrStore("button:"+event.EventID, time.Now()); loaded {
			return
		}
	}

	s.handlerMutex.RLock()
	handler := s.buttonHandler
	s.handlerMutex.RUnlock()

	if handler == nil {
		log.Printf("[MQTT] 按键事件无处理程序: user=%d action=%s", event.UserID, event.Action)
		return
	}
	handler(event.UserID, event.Action)
}

// handleVoiceEvent 处理语音识别事件
func (s *MQTTService) handleVoiceEvent(client mqtt.Client, msg mqtt.Message) {
	var event VoiceEventMessage
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		log.Printf("[MQTT] 语音事件解析失败: %v", err)
		return
	}

	if event.EventID != "" {
		if _, loaded := s.ProcessedMsgs.LoadOrStore("voice:"+event.EventID, time.Now()); loaded {
			return
		}
	}

	s.handlerMutex.RLock()
	handler := s.voiceHandler
	s.handlerMutex.RUnlock()

	if handler == nil {
		return
	}
	handler(event.UserID, event.Phrase)
}

// PublishAlertStatus 广播报警状态变化
func (s *MQTTService) PublishAlertStatus(snapshot models.EventSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("报警状态序列化失败: %v", err)
	}
	return s.publish(TopicAlertStatus, payload)
}

// PublishSystemMessage 发布系统消息
func (s *MQTTService) PublishSystemMessage(messageType string, message map[string]interface{}) error {
	systemMsg := SystemMessage{
		Type:      messageType,
		Level:     "info",
		Message:   fmt.Sprintf("%v", message["message"]),
		Data:      message,
		Timestamp: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(systemMsg)
	if err != nil {
		return fmt.Errorf("系统消息序列化失败: %v", err)
	}
	return s.publish(TopicSystemMessage, payload)
}

// Send 通过MQTT通知网关派发一条通知
func (s *MQTTService) Send(channel, target string, payload map[string]interface{}) error {
	msg := NotifyMessage{
		Channel:   channel,
		Target:    target,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("通知消息序列化失败: %v", err)
	}
	return s.publish(TopicNotifyPrefix+channel, data)
}

func (s *MQTTService) publish(topic string, payload []byte) error {
	if !s.Connected() {
		return fmt.Errorf("MQTT未连接，消息未发布: topic=%s", topic)
	}

	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	token := s.Client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(3*time.Second) || token.Error() != nil {
		return fmt.Errorf("消息发布失败 [%s]: %v", topic, token.Error())
	}
	return nil
}

// startMsgCleanupTask 定期清理去重记录，防止内存无限增长
func (s *MQTTService) startMsgCleanupTask() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-30 * time.Minute)
		s.ProcessedMsgs.Range(func(key, value interface{}) bool {
			if t, ok := value.(time.Time); ok && t.Before(cutoff) {
				s.ProcessedMsgs.Delete(key)
			}
			return true
		})
	}
}
