package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
	"guardian-angel-http-service/utils"
)

// InterfaceSettingsService defines the user settings service interface
type InterfaceSettingsService interface {
	GetSettings(userID uint) (*models.UserSettings, error)
	UpdateSettings(userID uint, updates map[string]interface{}) (*models.UserSettings, error)
	SetCancelPin(userID uint, pin string) error
	ClearCancelPin(userID uint) error
	VerifyCancelPin(userID uint, pin string) (bool, error)
}

// SettingsService 用户安全偏好设置服务
type SettingsService struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  InterfaceRedisService
}

// NewSettingsService 创建新的设置服务
func NewSettingsService(db *gorm.DB, cfg *config.Config, redis InterfaceRedisService) InterfaceSettingsService {
	return &SettingsService{
		DB:     db,
		Config: cfg,
		Redis:  redis,
	}
}

func settingsCacheKey(userID uint) string {
	return fmt.Sprintf("settings:%d", userID)
}

// GetSettings 获取用户设置，不存在时创建默认设置
func (s *SettingsService) GetSettings(userID uint) (*models.UserSettings, error) {
	// 先查缓存
	if s.Redis != nil {
		if cached, err := s.Redis.Get(settingsCacheKey(userID)); err == nil && cached != "" {
			var settings models.UserSettings
			if err := json.Unmarshal([]byte(cached), &settings); err == nil {
				return &settings, nil
			}
		}
	}

	var settings models.UserSettings
	err := s.DB.Where("user_id = ?", userID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = models.UserSettings{
			UserID:            userID,
			PinProtectCancel:  false,
			VoiceActivation:   false,
			VoicePhrase:       "Emergency",
			SirenEnabled:      true,
			FlashlightEnabled: true,
			LocationSharing:   true,
		}
		if err := s.DB.Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("创建默认设置失败: %v", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("查询设置失败: %v", err)
	}

	s.cacheSettings(&settings)
	return &settings, nil
}

// UpdateSettings 更新用户设置
func (s *SettingsService) UpdateSettings(userID uint, updates map[string]interface{}) (*models.UserSettings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	// PIN哈希只能通过SetCancelPin修改
	delete(updates, "cancel_pin_hash")
	delete(updates, "user_id")

	if err := s.DB.Model(settings).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新设置失败: %v", err)
	}

	s.invalidate(userID)
	return s.GetSettings(userID)
}

// SetCancelPin 设置取消报警所需的PIN码
func (s *SettingsService) SetCancelPin(userID uint, pin string) error {
	if len(pin) < 4 {
		return fmt.Errorf("PIN码长度不能少于4位")
	}

	hash, err := utils.HashPassword(pin)
	if err != nil {
		return fmt.Errorf("PIN码加密失败: %v", err)
	}

	settings, err := s.GetSettings(userID)
	if err != nil {
		return err
	}

	err = s.DB.Model(settings).Updates(map[string]interface{}{
		"cancel_pin_hash":    hash,
		"pin_protect_cancel": true,
	}).Error
	if err != nil {
		return fmt.Errorf("保存PIN码失败: %v", err)
	}

	s.invalidate(userID)
	return nil
}

// ClearCancelPin 清除PIN码保护
func (s *SettingsService) ClearCancelPin(userID uint) error {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return err
	}

	err = s.DB.Model(settings).Updates(map[string]interface{}{
		"cancel_pin_hash":    "",
		"pin_protect_cancel": false,
	}).Error
	if err != nil {
		return fmt.Errorf("清除PIN码失败: %v", err)
	}

	s.invalidate(userID)
	return nil
}

// VerifyCancelPin 校验PIN码
func (s *SettingsService) VerifyCancelPin(userID uint, pin string) (bool, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return false, err
	}
	if !settings.HasCancelPin() {
		// 未设置PIN时视为校验通过
		return true, nil
	}
	return utils.CheckPasswordHash(pin, settings.CancelPinHash), nil
}

func (s *SettingsService) cacheSettings(settings *models.UserSettings) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	_ = s.Redis.Set(settingsCacheKey(settings.UserID), string(data), s.Config.SettingsCacheTTL)
}

func (s *SettingsService) invalidate(userID uint) {
	if s.Redis != nil {
		_ = s.Redis.Delete(settingsCacheKey(userID))
	}
}
