package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/oussamael/internhub/internal/app/controllers"
	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/middleware"
)

// SetupRouter configures all API routes.
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	dashboardController *controllers.DashboardController,
	internshipController *controllers.InternshipController,
	alertController *controllers.AlertController,
	sweepController *controllers.SweepController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	v1.POST("/auth/login", authController.Login)

	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/dashboard", dashboardController.GetDashboard)

		internships := authenticated.Group("/internships")
		{
			internships.GET("", internshipController.ListInternships)
			internships.GET("/:id", internshipController.GetInternship)
			internships.PUT("/:id", internshipController.UpdateInternship)
			internships.POST("/:id/transitions", internshipController.SubmitTransition)

			staffOnly := internships.Group("")
			staffOnly.Use(authMiddleware.RoleRequired(models.RoleAdmin, models.RoleCoordinator))
			{
				staffOnly.POST("", internshipController.CreateInternship)
				staffOnly.DELETE("/:id", internshipController.DeleteInternship)
			}
		}

		alerts := authenticated.Group("/alerts")
		{
			alerts.GET("", alertController.ListAlerts)
			alerts.POST("/:id/acknowledge", alertController.AcknowledgeAlert)
			alerts.POST("/:id/resolve", alertController.ResolveAlert)
		}

		sweeps := authenticated.Group("/sweeps")
		sweeps.Use(authMiddleware.RoleRequired(models.RoleAdmin, models.RoleCoordinator))
		{
			sweeps.POST("/anomaly", sweepController.RunAnomalySweep)
		}
	}
}
