package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"guardian-angel-http-service/internal/error/code"
	"guardian-angel-http-service/internal/error/response"
	"guardian-angel-http-service/models"
	"guardian-angel-http-service/services"
	"guardian-angel-http-service/services/container"
)

// ContactController 处理紧急联系人相关的请求
type ContactController struct {
	BaseControllerImpl
}

// NewContactController 创建一个新的联系人控制器
func (f *ControllerFactory) NewContactController(ctx *gin.Context) *ContactController {
	return &ContactController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// ContactRequest 联系人创建/更新请求
type ContactRequest struct {
	Name         string `json:"name" binding:"required" example:"张三"`
	PhoneNumber  string `json:"phone_number" example:"13800138000"`
	Email        string `json:"email" example:"zhangsan@example.com"`
	Relationship string `json:"relationship" example:"family"`
	Priority     int    `json:"priority" example:"10"`
	Remark       string `json:"remark" example:"首选联系人"`
}

func (c *ContactController) contactService() services.InterfaceContactService {
	return c.Container.GetService("contact").(services.InterfaceContactService)
}

// GetContacts 获取联系人列表
// @Summary      获取紧急联系人列表
// @Description  分页获取当前用户的紧急联系人，按优先级排序
// @Tags         Contact
// @Produce      json
// @Param        pageNum   query  int  false  "页码"
// @Param        pageSize  query  int  false  "每页数量"
// @Success      200  {object}  response.Response
// @Router       /contacts [get]
func (c *ContactController) GetContacts() {
	var pagination models.PaginationQuery
	if err := c.Context.ShouldBindQuery(&pagination); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的分页参数", nil)
		return
	}
	pagination.Normalize()

	userID := currentUserID(c.Context)
	contacts, total, err := c.contactService().GetContacts(userID, &pagination)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Context, gin.H{
		"list":       contacts,
		"pagination": models.NewPaginationResult(int(total), pagination.PageNum, pagination.PageSize),
	})
}

// GetContact 获取单个联系人
// @Summary      获取联系人详情
// @Tags         Contact
// @Produce      json
// @Param        id  path  int  true  "联系人ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /contacts/{id} [get]
func (c *ContactController) GetContact() {
	contactID, err := strconv.ParseUint(c.Context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的联系人ID", nil)
		return
	}

	userID := currentUserID(c.Context)
	contact, err := c.contactService().GetContactByID(userID, uint(contactID))
	if err != nil {
		response.Fail(c.Context, code.ErrContactNotFound, nil)
		return
	}
	response.Success(c.Context, contact)
}

// CreateContact 创建联系人
// @Summary      创建紧急联系人
// @Tags         Contact
// @Accept       json
// @Produce      json
// @Param        request body ContactRequest true "联系人信息"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /contacts [post]
func (c *ContactController) CreateContact() {
	var req ContactRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	contact := &models.EmergencyContact{
		UserID:       currentUserID(c.Context),
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		Relationship: req.Relationship,
		Priority:     req.Priority,
		Remark:       req.Remark,
	}

	if err := c.contactService().CreateContact(contact); err != nil {
		response.FailWithMessage(c.Context, code.ErrContactInvalid, err.Error(), nil)
		return
	}
	response.Success(c.Context, contact)
}

// UpdateContact 更新联系人
// @Summary      更新紧急联系人
// @Tags         Contact
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "联系人ID"
// @Param        request body ContactRequest true "联系人信息"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /contacts/{id} [put]
func (c *ContactController) UpdateContact() {
	contactID, err := strconv.ParseUint(c.Context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的联系人ID", nil)
		return
	}

	var updates map[string]interface{}
	if err := c.Context.ShouldBindJSON(&updates); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID := currentUserID(c.Context)
	contact, err := c.contactService().UpdateContact(userID, uint(contactID), updates)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrContactNotFound, err.Error(), nil)
		return
	}
	response.Success(c.Context, contact)
}

// DeleteContact 删除联系人
// @Summary      删除紧急联系人
// @Tags         Contact
// @Produce      json
// @Param        id  path  int  true  "联系人ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /contacts/{id} [delete]
func (c *ContactController) DeleteContact() {
	contactID, err := strconv.ParseUint(c.Context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的联系人ID", nil)
		return
	}

	userID := currentUserID(c.Context)
	if err := c.contactService().DeleteContact(userID, uint(contactID)); err != nil {
		response.Fail(c.Context, code.ErrContactNotFound, nil)
		return
	}
	response.Success(c.Context, nil)
}

// HandleContactFunc 返回一个处理联系人请求的Gin处理函数
func HandleContactFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewContactController(ctx)

		switch method {
		case "getContacts":
			controller.GetContacts()
		case "getContact":
			controller.GetContact()
		case "createContact":
			controller.CreateContact()
		case "updateContact":
			controller.UpdateContact()
		case "deleteContact":
			controller.DeleteContact()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}
