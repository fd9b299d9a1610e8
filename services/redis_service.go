package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// InterfaceRedisService defines the Redis cache service interface
type InterfaceRedisService interface {
	Set(key string, value string, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	CachePosition(userID uint, pos *models.Position) error
	GetPosition(userID uint) (*models.Position, error)
	Ping() error
	Close() error
}

// RedisService provides cache operations backed by Redis
type RedisService struct {
	Client *redis.Client
	Config *config.Config
	ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "",
		DB:       cfg.RedisDB,
	})

	return &RedisService{
		Client: client,
		Config: cfg,
		ctx:    context.Background(),
	}
}

// Set stores a key with expiration
func (s *RedisService) Set(key string, value string, expiration time.Duration) error {
	return s.Client.Set(s.ctx, key, value, expiration).Err()
}

// Get retrieves a key, returns empty string when missing
func (s *RedisService) Get(key string) (string, error) {
	value, err := s.Client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Delete removes a key
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.ctx, key).Err()
}

func positionKey(userID uint) string {
	return fmt.Sprintf("position:%d", userID)
}

// CachePosition 缓存用户最近上报的位置，带TTL避免使用过期位置
func (s *RedisService) CachePosition(userID uint, pos *models.Position) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("位置序列化失败: %v", err)
	}
	return s.Set(positionKey(userID), string(data), s.Config.PositionTTL)
}

// GetPosition 获取用户最近上报的位置，缓存过期或不存在时返回nil
func (s *RedisService) GetPosition(userID uint) (*models.Position, error) {
	value, err := s.Get(positionKey(userID))
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	var pos models.Position
	if err := json.Unmarshal([]byte(value), &pos); err != nil {
		return nil, fmt.Errorf("位置反序列化失败: %v", err)
	}
	return &pos, nil
}

// Ping checks the Redis connection
func (s *RedisService) Ping() error {
	return s.Client.Ping(s.ctx).Err()
}

// Close closes the Redis connection
func (s *RedisService) Close() error {
	return s.Client.Close()
}
