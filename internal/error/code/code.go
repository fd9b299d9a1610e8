package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
)

// 报警相关错误码 (102xxx).
const (
	// ErrAlertInProgress - 409: 已有报警进行中.
	ErrAlertInProgress int = iota + 102000
	// ErrAlertNotFound - 404: 没有进行中的报警.
	ErrAlertNotFound
	// ErrAlertNotCancellable - 403: 报警不可取消.
	ErrAlertNotCancellable
	// ErrPinIncorrect - 403: PIN码错误.
	ErrPinIncorrect
	// ErrPinAttemptsExceeded - 429: PIN尝试次数过多.
	ErrPinAttemptsExceeded
	// ErrInvalidTrigger - 400: 无效的触发方式.
	ErrInvalidTrigger
	// ErrInvalidLevel - 400: 无效的报警级别.
	ErrInvalidLevel
)

// 联系人相关错误码 (103xxx).
const (
	// ErrContactNotFound - 404: 联系人不存在.
	ErrContactNotFound int = iota + 103000
	// ErrContactInvalid - 400: 联系人信息不完整.
	ErrContactInvalid
)

// 位置相关错误码 (104xxx).
const (
	// ErrPositionUnavailable - 404: 当前位置不可用.
	ErrPositionUnavailable int = iota + 104000
	// ErrShareNotFound - 404: 位置共享不存在.
	ErrShareNotFound
	// ErrShareExpired - 400: 位置共享已过期.
	ErrShareExpired
	// ErrSafeZoneNotFound - 404: 安全区不存在.
	ErrSafeZoneNotFound
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 事件上报相关错误码 (106xxx).
const (
	// ErrIncidentNotFound - 404: 事件不存在.
	ErrIncidentNotFound int = iota + 106000
	// ErrIncidentInvalid - 400: 事件信息不完整.
	ErrIncidentInvalid
)
