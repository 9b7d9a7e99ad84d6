package routes

import (
	"github.com/gin-gonic/gin"

	"estatecrm/internal/authz"
	"estatecrm/internal/handlers"
	"estatecrm/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtKey []byte,
	authHandler *handlers.AuthHandler,
	leadHandler *handlers.LeadHandler,
	propertyHandler *handlers.PropertyHandler,
	teamHandler *handlers.TeamHandler,
	dashboardHandler *handlers.DashboardHandler,
	whatsappHandler *handlers.WhatsAppHandler,
) *gin.Engine {

	api := r.Group("/api")

	// ---- public
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authHandler.ResetPassword)

	// ---- protected
	api.Use(middleware.AuthMiddleware(jwtKey))

	api.GET("/dashboard", dashboardHandler.Snapshot)

	// LEADS
	leads := api.Group("/leads")
	{
		// без хвостового слэша, иначе gin отвечает 301 и POST клиента
		// превращается в GET после редиректа
		leads.GET("", leadHandler.List)
		leads.POST("", leadHandler.Create)
		leads.GET("/:id", leadHandler.GetByID)
		leads.PUT("/:id", leadHandler.Update)
		leads.DELETE("/:id", middleware.RequireRoles(authz.RoleManager), leadHandler.Delete)
		leads.POST("/:id/status", leadHandler.UpdateStatus)
		leads.POST("/:id/assign", middleware.RequireRoles(authz.RoleManager, authz.RoleSuperAgent), leadHandler.Assign)
		leads.POST("/:id/remind", leadHandler.Remind)
		// имя параметра то же, что у остальных роутов: gin требует
		// одинаковый wildcard на одной позиции дерева
		leads.POST("/:id/link-property/:propertyId", leadHandler.LinkProperty)
		leads.DELETE("/:id/unlink-property/:propertyId", leadHandler.UnlinkProperty)
	}

	// PROPERTIES
	properties := api.Group("/properties")
	{
		properties.GET("", propertyHandler.List)
		properties.POST("", propertyHandler.Create)
		properties.GET("/:id", propertyHandler.GetByID)
		properties.PUT("/:id", propertyHandler.Update)
		properties.DELETE("/:id", middleware.RequireRoles(authz.RoleManager), propertyHandler.Delete)
		properties.GET("/:id/brochure", propertyHandler.GenerateBrochure)
	}

	// TEAM (управление — только manager)
	team := api.Group("/team")
	{
		team.GET("", teamHandler.List)
		team.GET("/:id", teamHandler.GetByID)
		team.POST("", middleware.RequireRoles(authz.RoleManager), teamHandler.Create)
		team.PUT("/:id", middleware.RequireRoles(authz.RoleManager), teamHandler.Update)
		team.DELETE("/:id", middleware.RequireRoles(authz.RoleManager), teamHandler.Delete)
	}

	// WHATSAPP
	api.POST("/whatsapp/welcome/:leadId", whatsappHandler.Welcome)

	return r
}
