package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// InterfaceContactService defines the emergency contact service interface
type InterfaceContactService interface {
	GetContacts(userID uint, pagination *models.PaginationQuery) ([]models.EmergencyContact, int64, error)
	GetContactByID(userID, contactID uint) (*models.EmergencyContact, error)
	CreateContact(contact *models.EmergencyContact) error
	UpdateContact(userID, contactID uint, updates map[string]interface{}) (*models.EmergencyContact, error)
	DeleteContact(userID, contactID uint) error
	GetNotifyTargets(userID uint) ([]models.EmergencyContact, error)
}

// ContactService 紧急联系人服务
type ContactService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewContactService 创建新的联系人服务
func NewContactService(db *gorm.DB, cfg *config.Config) InterfaceContactService {
	return &ContactService{
		DB:     db,
		Config: cfg,
	}
}

// GetContacts 分页获取用户的紧急联系人列表
func (s *ContactService) GetContacts(userID uint, pagination *models.PaginationQuery) ([]models.EmergencyContact, int64, error) {
	var contacts []models.EmergencyContact
	var total int64

	query := s.DB.Model(&models.EmergencyContact{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计联系人数量失败: %v", err)
	}

	offset := (pagination.PageNum - 1) * pagination.PageSize
	err := query.Order("priority DESC, id ASC").
		Offset(offset).
		Limit(pagination.PageSize).
		Find(&contacts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询联系人列表失败: %v", err)
	}

	return contacts, total, nil
}

// GetContactByID 获取单个联系人
func (s *ContactService) GetContactByID(userID, contactID uint) (*models.EmergencyContact, error) {
	var contact models.EmergencyContact
	err := s.DB.Where("id = ? AND user_id = ?", contactID, userID).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("联系人不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("查询联系人失败: %v", err)
	}
	return &contact, nil
}

// CreateContact 创建联系人
func (s *ContactService) CreateContact(contact *models.EmergencyContact) error {
	if contact.Name == "" {
		return errors.New("联系人姓名不能为空")
	}
	if contact.PhoneNumber == "" && contact.Email == "" {
		return errors.New("联系人电话和邮箱至少填写一项")
	}

	if err := s.DB.Create(contact).Error; err != nil {
		return fmt.Errorf("创建联系人失败: %v", err)
	}
	return nil
}

// UpdateContact 更新联系人
func (s *ContactService) UpdateContact(userID, contactID uint, updates map[string]interface{}) (*models.EmergencyContact, error) {
	contact, err := s.GetContactByID(userID, contactID)
	if err != nil {
		return nil, err
	}

	delete(updates, "user_id")

	if err := s.DB.Model(contact).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新联系人失败: %v", err)
	}
	return s.GetContactByID(userID, contactID)
}

// DeleteContact 删除联系人
func (s *ContactService) DeleteContact(userID, contactID uint) error {
	result := s.DB.Where("id = ? AND user_id = ?", contactID, userID).Delete(&models.EmergencyContact{})
	if result.Error != nil {
		return fmt.Errorf("删除联系人失败: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("联系人不存在")
	}
	return nil
}

// GetNotifyTargets 获取报警通知目标，按优先级从高到低排列
func (s *ContactService) GetNotifyTargets(userID uint) ([]models.EmergencyContact, error) {
	var contacts []models.EmergencyContact
	err := s.DB.Where("user_id = ?", userID).
		Order("priority DESC, id ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("查询通知目标失败: %v", err)
	}
	return contacts, nil
}
