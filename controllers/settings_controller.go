package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guardian-angel-http-service/internal/error/code"
	"guardian-angel-http-service/internal/error/response"
	"guardian-angel-http-service/services"
	"guardian-angel-http-service/services/container"
)

// SettingsController 处理用户安全偏好设置相关的请求
type SettingsController struct {
	BaseControllerImpl
}

// NewSettingsController 创建一个新的设置控制器
func (f *ControllerFactory) NewSettingsController(ctx *gin.Context) *SettingsController {
	return &SettingsController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// SetPinRequest 设置取消PIN请求
type SetPinRequest struct {
	Pin string `json:"pin" binding:"required" example:"1234"`
}

func (c *SettingsController) settingsService() services.InterfaceSettingsService {
	return c.Container.GetService("settings").(services.InterfaceSettingsService)
}

// GetSettings 获取用户设置
// @Summary      获取安全偏好设置
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /settings [get]
func (c *SettingsController) GetSettings() {
	userID := currentUserID(c.Context)
	settings, err := c.settingsService().GetSettings(userID)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, settings)
}

// UpdateSettings 更新用户设置
// @Summary      更新安全偏好设置
// @Description  部分更新语音激活、静默模式、鸣笛等偏好，PIN码需通过专用接口设置
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /settings [put]
func (c *SettingsController) UpdateSettings() {
	var updates map[string]interface{}
	if err := c.Context.ShouldBindJSON(&updates); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID := currentUserID(c.Context)
	settings, err := c.settingsService().UpdateSettings(userID, updates)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, settings)
}

// SetCancelPin 设置取消PIN
// @Summary      设置取消报警PIN码
// @Description  设置后取消已激活的报警需要PIN校验
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        request body SetPinRequest true "PIN码"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /settings/pin [post]
func (c *SettingsController) SetCancelPin() {
	var req SetPinRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID := currentUserID(c.Context)
	if err := c.settingsService().SetCancelPin(userID, req.Pin); err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, err.Error(), nil)
		return
	}
	response.Success(c.Context, nil)
}

// ClearCancelPin 清除取消PIN
// @Summary      清除取消报警PIN码
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /settings/pin [delete]
func (c *SettingsController) ClearCancelPin() {
	userID := currentUserID(c.Context)
	if err := c.settingsService().ClearCancelPin(userID); err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, nil)
}

// HandleSettingsFunc 返回一个处理设置请求的Gin处理函数
func HandleSettingsFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewSettingsController(ctx)

		switch method {
		case "getSettings":
			controller.GetSettings()
		case "updateSettings":
			controller.UpdateSettings()
		case "setCancelPin":
			controller.SetCancelPin()
		case "clearCancelPin":
			controller.ClearCancelPin()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}
