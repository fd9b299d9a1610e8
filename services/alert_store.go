package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"guardian-angel-http-service/models"
)

// InterfaceAlertStore 报警记录持久化接口
type InterfaceAlertStore interface {
	CreateRecord(snapshot models.EventSnapshot) error
	UpdateRecordState(eventID string, state models.EventState, reason string, endedAt *time.Time) error
	SetRecordLocation(eventID string, lat, lng float64) error
	RecordDispatch(entry *models.DispatchLog) error
	ListRecords(userID uint, pagination *models.PaginationQuery) ([]models.AlertRecord, int64, error)
	ListDispatchLogs(eventID string) ([]models.DispatchLog, error)
}

// GormAlertStore 基于数据库的报警记录存储
type GormAlertStore struct {
	DB *gorm.DB
}

// NewGormAlertStore 创建数据库报警记录存储
func NewGormAlertStore(db *gorm.DB) InterfaceAlertStore {
	return &GormAlertStore{DB: db}
}

// CreateRecord 落库一条新报警记录
func (s *GormAlertStore) CreateRecord(snapshot models.EventSnapshot) error {
	record := models.AlertRecord{
		EventID:     snapshot.EventID,
		UserID:      snapshot.UserID,
		Level:       snapshot.Level,
		Trigger:     snapshot.Trigger,
		State:       snapshot.State,
		Silent:      snapshot.Silent,
		TriggeredAt: snapshot.CreatedAt,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return fmt.Errorf("创建报警记录失败: %v", err)
	}
	return nil
}

// UpdateRecordState 更新报警记录状态
func (s *GormAlertStore) UpdateRecordState(eventID string, state models.EventState, reason string, endedAt *time.Time) error {
	updates := map[string]interface{}{
		"state": state,
	}
	if reason != "" {
		updates["reason"] = reason
	}
	if endedAt != nil {
		updates["ended_at"] = endedAt
	}

	err := s.DB.Model(&models.AlertRecord{}).
		Where("event_id = ?", eventID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新报警记录失败: %v", err)
	}
	return nil
}

// SetRecordLocation 记录报警时所在位置
func (s *GormAlertStore) SetRecordLocation(eventID string, lat, lng float64) error {
	err := s.DB.Model(&models.AlertRecord{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"latitude":  lat,
			"longitude": lng,
		}).Error
	if err != nil {
		return fmt.Errorf("记录报警位置失败: %v", err)
	}
	return nil
}

// RecordDispatch 落库一条派发日志
func (s *GormAlertStore) RecordDispatch(entry *models.DispatchLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := s.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("记录派发日志失败: %v", err)
	}
	return nil
}

// ListRecords 分页查询用户的报警历史
func (s *GormAlertStore) ListRecords(userID uint, pagination *models.PaginationQuery) ([]models.AlertRecord, int64, error) {
	var records []models.AlertRecord
	var total int64

	query := s.DB.Model(&models.AlertRecord{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计报警记录失败: %v", err)
	}

	offset := (pagination.PageNum - 1) * pagination.PageSize
	err := query.Order("triggered_at DESC").
		Offset(offset).
		Limit(pagination.PageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询报警记录失败: %v", err)
	}
	return records, total, nil
}

// ListDispatchLogs 查询某次报警的派发日志
func (s *GormAlertStore) ListDispatchLogs(eventID string) ([]models.DispatchLog, error) {
	var logs []models.DispatchLog
	err := s.DB.Where("event_id = ?", eventID).
		Order("timestamp ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("查询派发日志失败: %v", err)
	}
	return logs, nil
}
