package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
	"guardian-angel-http-service/utils"
)

// ErrPositionUnavailable 没有可用的位置信息
var ErrPositionUnavailable = errors.New("当前位置不可用")

// ZoneTransition 安全区进出状态
type ZoneTransition struct {
	Zone   models.SafeZone `json:"zone"`
	Inside bool            `json:"inside"`
}

// InterfaceLocationService defines the location service interface
type InterfaceLocationService interface {
	UpdatePosition(userID uint, pos *models.Position) ([]ZoneTransition, error)
	LastPosition(userID uint) (*models.Position, error)
	CreateShare(userID uint, recipients []string, duration time.Duration, isPublic bool) (*models.LocationShare, error)
	GetShareByToken(token string) (*models.LocationShare, *models.Position, error)
	StopShare(userID uint, token string) error
	ListActiveShares(userID uint) ([]models.LocationShare, error)
	CreateSafeZone(zone *models.SafeZone) error
	ListSafeZones(userID uint) ([]models.SafeZone, error)
	UpdateSafeZone(userID, zoneID uint, updates map[string]interface{}) (*models.SafeZone, error)
	DeleteSafeZone(userID, zoneID uint) error
}

// LocationService 位置服务：上报位置缓存、实时位置共享、安全区
type LocationService struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  InterfaceRedisService
}

// NewLocationService 创建新的位置服务
func NewLocationService(db *gorm.DB, cfg *config.Config, redis InterfaceRedisService) InterfaceLocationService {
	return &LocationService{
		DB:     db,
		Config: cfg,
		Redis:  redis,
	}
}

// UpdatePosition 上报最新位置，返回当前位置命中的安全区状态
func (s *LocationService) UpdatePosition(userID uint, pos *models.Position) ([]ZoneTransition, error) {
	if pos.Timestamp.IsZero() {
		pos.Timestamp = time.Now()
	}

	if err := s.Redis.CachePosition(userID, pos); err != nil {
		return nil, fmt.Errorf("缓存位置失败: %v", err)
	}

	zones, err := s.ListSafeZones(userID)
	if err != nil {
		return nil, err
	}

	transitions := make([]ZoneTransition, 0, len(zones))
	for _, zone := range zones {
		if !zone.Enabled {
			continue
		}
		transitions = append(transitions, ZoneTransition{
			Zone:   zone,
			Inside: zone.Contains(pos.Latitude, pos.Longitude),
		})
	}
	return transitions, nil
}

// LastPosition 获取最近一次上报的位置，过期或缺失时返回ErrPositionUnavailable
func (s *LocationService) LastPosition(userID uint) (*models.Position, error) {
	pos, err := s.Redis.GetPosition(userID)
	if err != nil {
		return nil, fmt.Errorf("读取位置缓存失败: %v", err)
	}
	if pos == nil {
		return nil, ErrPositionUnavailable
	}
	return pos, nil
}

func shareTokenKey(token string) string {
	return "share_token:" + token
}

// CreateShare 创建实时位置共享令牌
func (s *LocationService) CreateShare(userID uint, recipients []string, duration time.Duration, isPublic bool) (*models.LocationShare, error) {
	if duration <= 0 {
		duration = s.Config.ShareDefaultTTL
	}

	now := time.Now()
	share := &models.LocationShare{
		Token:      utils.RandomToken(16),
		UserID:     userID,
		Recipients: joinRecipients(recipients),
		IsPublic:   isPublic,
		StartedAt:  now,
		ExpiresAt:  now.Add(duration),
		Active:     true,
	}

	if err := s.DB.Create(share).Error; err != nil {
		return nil, fmt.Errorf("创建位置共享失败: %v", err)
	}

	// 令牌写入Redis，TTL与共享有效期一致
	_ = s.Redis.Set(shareTokenKey(share.Token), fmt.Sprintf("%d", userID), duration)

	return share, nil
}

// GetShareByToken 通过令牌获取共享详情和共享者当前位置
func (s *LocationService) GetShareByToken(token string) (*models.LocationShare, *models.Position, error) {
	var share models.LocationShare
	err := s.DB.Where("token = ?", token).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errors.New("共享链接不存在")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("查询共享失败: %v", err)
	}

	if !share.Active || share.Expired(time.Now()) {
		return nil, nil, errors.New("共享已结束或已过期")
	}

	pos, err := s.LastPosition(share.UserID)
	if err != nil && !errors.Is(err, ErrPositionUnavailable) {
		return nil, nil, err
	}
	return &share, pos, nil
}

// StopShare 停止位置共享
func (s *LocationService) StopShare(userID uint, token string) error {
	var share models.LocationShare
	err := s.DB.Where("token = ? AND user_id = ?", token, userID).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New("共享链接不存在")
	}
	if err != nil {
		return fmt.Errorf("查询共享失败: %v", err)
	}

	now := time.Now()
	err = s.DB.Model(&share).Updates(map[string]interface{}{
		"active":   false,
		"ended_at": &now,
	}).Error
	if err != nil {
		return fmt.Errorf("停止共享失败: %v", err)
	}

	_ = s.Redis.Delete(shareTokenKey(token))
	return nil
}

// ListActiveShares 列出用户当前有效的共享
func (s *LocationService) ListActiveShares(userID uint) ([]models.LocationShare, error) {
	var shares []models.LocationShare
	err := s.DB.Where("user_id = ? AND active = ? AND expires_at > ?", userID, true, time.Now()).
		Order("started_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询共享列表失败: %v", err)
	}
	return shares, nil
}

// CreateSafeZone 创建安全区
func (s *LocationService) CreateSafeZone(zone *models.SafeZone) error {
	if zone.Name == "" {
		return errors.New("安全区名称不能为空")
	}
	if zone.RadiusMeters <= 0 {
		zone.RadiusMeters = 200
	}
	if err := s.DB.Create(zone).Error; err != nil {
		return fmt.Errorf("创建安全区失败: %v", err)
	}
	return nil
}

// ListSafeZones 列出用户的安全区
func (s *LocationService) ListSafeZones(userID uint) ([]models.SafeZone, error) {
	var zones []models.SafeZone
	err := s.DB.Where("user_id = ?", userID).Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("查询安全区失败: %v", err)
	}
	return zones, nil
}

// UpdateSafeZone 更新安全区
func (s *LocationService) UpdateSafeZone(userID, zoneID uint, updates map[string]interface{}) (*models.SafeZone, error) {
	var zone models.SafeZone
	err := s.DB.Where("id = ? AND user_id = ?", zoneID, userID).First(&zone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("安全区不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("查询安全区失败: %v", err)
	}

	delete(updates, "user_id")

	if err := s.DB.Model(&zone).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新安全区失败: %v", err)
	}
	return &zone, nil
}

// DeleteSafeZone 删除安全区
func (s *LocationService) DeleteSafeZone(userID, zoneID uint) error {
	result := s.DB.Where("id = ? AND user_id = ?", zoneID, userID).Delete(&models.SafeZone{})
	if result.Error != nil {
		return fmt.Errorf("删除安全区失败: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("安全区不存在")
	}
	return nil
}

func joinRecipients(recipients []string) string {
	return strings.Join(recipients, ",")
}
