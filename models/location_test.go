package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	// 同一点距离为0
	assert.InDelta(t, 0, HaversineMeters(39.9, 116.4, 39.9, 116.4), 0.001)

	// 北京天安门到故宫约1公里
	d := HaversineMeters(39.9087, 116.3975, 39.9163, 116.3972)
	assert.InDelta(t, 845, d, 50)

	// 北京到上海约1070公里
	d = HaversineMeters(39.9042, 116.4074, 31.2304, 121.4737)
	assert.InDelta(t, 1068000, d, 10000)
}

func TestSafeZoneContains(t *testing.T) {
	zone := SafeZone{
		Name:         "家",
		Latitude:     39.9042,
		Longitude:    116.4074,
		RadiusMeters: 200,
	}

	assert.True(t, zone.Contains(39.9042, 116.4074))
	// 约150米外的点仍在半径内
	assert.True(t, zone.Contains(39.9055, 116.4074))
	// 约1公里外的点在半径外
	assert.False(t, zone.Contains(39.9132, 116.4074))
}

func TestLocationShareExpired(t *testing.T) {
	share := LocationShare{ExpiresAt: time.Now().Add(10 * time.Minute)}

	assert.False(t, share.Expired(time.Now()))
	assert.True(t, share.Expired(time.Now().Add(11*time.Minute)))
}

func TestUserSettingsPinRequired(t *testing.T) {
	s := UserSettings{}
	assert.False(t, s.PinRequired())

	// 只开开关没有设置PIN，等同于未保护
	s.PinProtectCancel = true
	assert.False(t, s.PinRequired())

	s.CancelPinHash = "$2a$10$hash"
	assert.True(t, s.PinRequired())

	// 有PIN但开关关闭同样不强制
	s.PinProtectCancel = false
	assert.False(t, s.PinRequired())
}
