package models

import (
	"time"
)

// UserSettings 表示用户的安全与隐私配置
type UserSettings struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	// 取消保护
	PinProtectCancel bool   `gorm:"default:false" json:"pin_protect_cancel"` // 取消报警是否需要PIN
	CancelPinHash    string `gorm:"type:varchar(100)" json:"-"`              // PIN的bcrypt哈希，不对外暴露

	// 语音触发
	VoiceActivation bool   `gorm:"default:false" json:"voice_activation"`
	VoicePhrase     string `gorm:"type:varchar(50);default:'Emergency'" json:"voice_phrase"`

	// 报警行为
	StealthMode       bool `gorm:"default:false" json:"stealth_mode"` // 伪装成系统更新界面
	SirenEnabled      bool `gorm:"default:true" json:"siren_enabled"`
	FlashlightEnabled bool `gorm:"default:true" json:"flashlight_enabled"`
	TestMode          bool `gorm:"default:false" json:"test_mode"` // 测试模式下不真正派发

	// 隐私
	LocationSharing    bool `gorm:"default:true" json:"location_sharing"`
	BackgroundTracking bool `gorm:"default:false" json:"background_tracking"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCancelPin 判断是否已配置取消PIN
func (s *UserSettings) HasCancelPin() bool {
	return s.CancelPinHash != ""
}

// PinRequired 判断取消active状态报警是否需要PIN校验
func (s *UserSettings) PinRequired() bool {
	return s.PinProtectCancel && s.HasCancelPin()
}
