package models

import (
	"math"
	"time"
)

// Position 一次定位结果
type Position struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	Timestamp      time.Time `json:"timestamp"`
}

// LocationShare 实时位置共享会话
type LocationShare struct {
	BaseModel
	Token      string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"token"` // 不透明能力令牌
	UserID     uint       `gorm:"index" json:"user_id"`
	Recipients string     `gorm:"type:text" json:"recipients"` // 逗号分隔的联系人ID，public模式下为空
	IsPublic   bool       `gorm:"default:false" json:"is_public"`
	StartedAt  time.Time  `json:"started_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Active     bool       `gorm:"default:true" json:"active"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// Expired 判断共享会话是否已过期
func (s *LocationShare) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SafeZone 地理围栏安全区
type SafeZone struct {
	BaseModel
	UserID        uint    `gorm:"index" json:"user_id"`
	Name          string  `gorm:"type:varchar(50);not null" json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	RadiusMeters  float64 `gorm:"default:200" json:"radius_meters"`
	Enabled       bool    `gorm:"default:true" json:"enabled"`
	NotifyOnEnter bool    `gorm:"default:false" json:"notify_on_enter"`
	NotifyOnExit  bool    `gorm:"default:true" json:"notify_on_exit"`
}

// Contains 判断坐标是否落在安全区内
func (z *SafeZone) Contains(lat, lng float64) bool {
	return HaversineMeters(z.Latitude, z.Longitude, lat, lng) <= z.RadiusMeters
}

const earthRadiusMeters = 6371000

// HaversineMeters 计算两个经纬度坐标之间的球面距离（米）
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
