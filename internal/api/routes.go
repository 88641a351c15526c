package api

import (
	"net/http"

	"fitstudio/roster-app/internal/domain"
	"fitstudio/roster-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler into the router. Booking mutations sit
// behind a per-IP rate limiter; coach-only routes behind RoleMiddleware.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	bookingLimiter *RateLimiter,
	authService service.AuthService,
	sessionService service.SessionService,
	rosterService service.RosterService,
	planService service.PlanService,
	catalogService service.CatalogService,
	reportService service.ReportService,
) {
	authHandler := NewAuthHandler(authService)
	sessionHandler := NewSessionHandler(sessionService)
	rosterHandler := NewRosterHandler(rosterService, authService)
	planHandler := NewPlanHandler(planService)
	catalogHandler := NewCatalogHandler(catalogService)
	reportHandler := NewReportHandler(reportService)

	authMiddleware := AuthMiddleware(jwtSecret)
	coachOnly := RoleMiddleware(domain.RoleCoach)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Session Routes ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.POST("", coachOnly, sessionHandler.CreateSession)
			sessionGroup.GET("/upcoming", sessionHandler.ListUpcoming)
			sessionGroup.GET("/mine", coachOnly, sessionHandler.ListMine)
			sessionGroup.GET("/:sessionId", sessionHandler.GetSession)

			// --- Roster Routes ---
			// Self-service booking and cancellation are rate limited; the
			// front-desk operations are coach-only.
			sessionGroup.POST("/:sessionId/bookings", bookingLimiter.Limit(), rosterHandler.RequestBooking)
			sessionGroup.DELETE("/:sessionId/bookings", bookingLimiter.Limit(), rosterHandler.CancelBooking)
			sessionGroup.POST("/:sessionId/walkins", coachOnly, rosterHandler.RegisterWalkIn)
			sessionGroup.POST("/:sessionId/checkins", coachOnly, rosterHandler.CheckIn)
			sessionGroup.POST("/:sessionId/checkins/all", coachOnly, rosterHandler.MarkAllPresent)
			sessionGroup.GET("/:sessionId/roster", rosterHandler.GetRoster)

			// --- Plan Routes ---
			// The saved plan is readable by any member; drafting is coach-only.
			sessionGroup.GET("/:sessionId/plan", planHandler.GetPlan)
			planGroup := sessionGroup.Group("/:sessionId/plan")
			planGroup.Use(coachOnly)
			{
				planGroup.GET("/draft", planHandler.GetDraft)
				planGroup.DELETE("/draft", planHandler.DiscardDraft)
				planGroup.POST("/exercises", planHandler.AddExercise)
				planGroup.PATCH("/exercises/:prescriptionId", planHandler.UpdateMetric)
				planGroup.DELETE("/exercises/:prescriptionId", planHandler.RemoveExercise)
				planGroup.POST("/save", planHandler.Save)
				planGroup.POST("/copy", planHandler.CopyFromSession)
			}

			// --- Report Routes ---
			sessionGroup.POST("/:sessionId/report", coachOnly, reportHandler.GenerateSessionReport)
			sessionGroup.GET("/:sessionId/report/url", coachOnly, reportHandler.ArchivedReportURL)
			sessionGroup.GET("/:sessionId/pass", reportHandler.CheckInPass)
		}

		// --- Exercise Catalog Routes ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", coachOnly, catalogHandler.CreateExercise)
			exerciseGroup.GET("", coachOnly, catalogHandler.ListMine)
			exerciseGroup.GET("/:exerciseId", catalogHandler.GetExercise)
			exerciseGroup.PUT("/:exerciseId", coachOnly, catalogHandler.UpdateExercise)
			exerciseGroup.DELETE("/:exerciseId", coachOnly, catalogHandler.DeleteExercise)
		}
	}
}
