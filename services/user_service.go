package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
	"guardian-angel-http-service/utils"
)

// InterfaceUserService defines the user service interface
type InterfaceUserService interface {
	Authenticate(username, password string) (*models.User, error)
	GetUserByID(userID uint) (*models.User, error)
	CreateUser(user *models.User) error
	EnsureDefaultUser() error
}

// UserService 用户账号服务
type UserService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewUserService 创建新的用户服务
func NewUserService(db *gorm.DB, cfg *config.Config) InterfaceUserService {
	return &UserService{
		DB:     db,
		Config: cfg,
	}
}

// Authenticate 校验用户名和密码
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("用户名或密码错误")
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %v", err)
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, errors.New("用户名或密码错误")
	}
	return &user, nil
}

// GetUserByID 获取用户信息
func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("用户不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %v", err)
	}
	return &user, nil
}

// CreateUser 创建用户
func (s *UserService) CreateUser(user *models.User) error {
	if user.Username == "" {
		return errors.New("用户名不能为空")
	}
	if user.Password == "" {
		return errors.New("密码不能为空")
	}

	var count int64
	s.DB.Model(&models.User{}).Where("username = ?", user.Username).Count(&count)
	if count > 0 {
		return errors.New("用户名已存在")
	}

	if err := s.DB.Create(user).Error; err != nil {
		return fmt.Errorf("创建用户失败: %v", err)
	}
	return nil
}

// EnsureDefaultUser 确保系统中存在默认账号，首次启动时创建
func (s *UserService) EnsureDefaultUser() error {
	var count int64
	if err := s.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("统计用户数量失败: %v", err)
	}
	if count > 0 {
		return nil
	}

	user := &models.User{
		Username: "admin",
		Password: s.Config.DefaultUserPassword,
		Role:     "admin",
	}
	if err := s.DB.Create(user).Error; err != nil {
		return fmt.Errorf("创建默认用户失败: %v", err)
	}

	config.Info("已创建默认用户 admin")
	return nil
}
