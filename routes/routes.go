package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/controllers"
	_ "guardian-angel-http-service/docs"
	"guardian-angel-http-service/middleware"
	"guardian-angel-http-service/services/container"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 健康检查
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 认证路由，登录注册按IP限流防止撞库
	api.POST("/auth/login", middleware.IPRateLimiter(1, 5), controllers.HandleJWTFunc(container, "login"))
	api.POST("/auth/register", middleware.IPRateLimiter(1, 3), controllers.HandleJWTFunc(container, "register"))

	// 位置共享查看：接收方通过令牌访问，不需要登录
	api.GET("/location/shares/:token", controllers.HandleLocationFunc(container, "getShare"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.Authenticate())

	// 报警路由
	auth.Group("/alerts").POST("/button", controllers.HandleAlertFunc(container, "buttonEvent"))
	auth.Group("/alerts").POST("/activate", controllers.HandleAlertFunc(container, "activate"))
	auth.Group("/alerts").POST("/voice", controllers.HandleAlertFunc(container, "voiceTrigger"))
	auth.Group("/alerts").POST("/cancel", controllers.HandleAlertFunc(container, "cancel"))
	auth.Group("/alerts").GET("/current", controllers.HandleAlertFunc(container, "currentState"))
	auth.Group("/alerts").GET("/history", controllers.HandleAlertFunc(container, "history"))
	auth.Group("/alerts").GET("/:eventId/dispatches", controllers.HandleAlertFunc(container, "dispatchLogs"))

	// 紧急联系人路由
	auth.Group("/contacts").GET("", controllers.HandleContactFunc(container, "getContacts"))
	auth.Group("/contacts").GET("/:id", controllers.HandleContactFunc(container, "getContact"))
	auth.Group("/contacts").POST("", controllers.HandleContactFunc(container, "createContact"))
	auth.Group("/contacts").PUT("/:id", controllers.HandleContactFunc(container, "updateContact"))
	auth.Group("/contacts").DELETE("/:id", controllers.HandleContactFunc(container, "deleteContact"))

	// 安全偏好设置路由
	auth.Group("/settings").GET("", controllers.HandleSettingsFunc(container, "getSettings"))
	auth.Group("/settings").PUT("", controllers.HandleSettingsFunc(container, "updateSettings"))
	auth.Group("/settings").POST("/pin", controllers.HandleSettingsFunc(container, "setCancelPin"))
	auth.Group("/settings").DELETE("/pin", controllers.HandleSettingsFunc(container, "clearCancelPin"))

	// 位置路由
	auth.Group("/location").POST("/position", controllers.HandleLocationFunc(container, "updatePosition"))
	auth.Group("/location").GET("/shares", controllers.HandleLocationFunc(container, "listShares"))
	auth.Group("/location").POST("/shares", controllers.HandleLocationFunc(container, "createShare"))
	auth.Group("/location").DELETE("/shares/:token", controllers.HandleLocationFunc(container, "stopShare"))
	auth.Group("/location").GET("/zones", controllers.HandleLocationFunc(container, "listSafeZones"))
	auth.Group("/location").POST("/zones", controllers.HandleLocationFunc(container, "createSafeZone"))
	auth.Group("/location").PUT("/zones/:id", controllers.HandleLocationFunc(container, "updateSafeZone"))
	auth.Group("/location").DELETE("/zones/:id", controllers.HandleLocationFunc(container, "deleteSafeZone"))

	// 社区事件路由
	auth.Group("/incidents").GET("", controllers.HandleIncidentFunc(container, "listReports"))
	auth.Group("/incidents").POST("", controllers.HandleIncidentFunc(container, "createReport"))
	auth.Group("/incidents").GET("/nearby", controllers.HandleIncidentFunc(container, "listNearby"))
	auth.Group("/incidents").GET("/safety-score", controllers.HandleIncidentFunc(container, "safetyScore"))
	auth.Group("/incidents").GET("/safe-havens", controllers.HandleIncidentFunc(container, "safeHavens"))
	auth.Group("/incidents").GET("/helpers", controllers.HandleIncidentFunc(container, "helpers"))
	auth.Group("/incidents").POST("/:id/upvote", controllers.HandleIncidentFunc(container, "upvote"))
	auth.Group("/incidents").POST("/:id/resolve", controllers.HandleIncidentFunc(container, "resolve"))
}
