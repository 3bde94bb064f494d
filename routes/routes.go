package routes

import (
	"net/http"

	"famhealth-backend/config"
	"famhealth-backend/controllers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Reminders      *controllers.ReminderController
	Families       *controllers.FamilyController
	Dispatch       *controllers.DispatchController
	AllowedOrigins []string
	Logger         *zap.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	allowed := make(map[string]bool, len(d.AllowedOrigins))
	for _, o := range d.AllowedOrigins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger(d.Logger))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "FamHealth reminder service is running")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		reminders := api.Group("/reminders")
		{
			reminders.POST("/add", d.Reminders.AddReminder)
			reminders.PUT("/done", d.Reminders.MarkDone)
			reminders.GET("/:memberId", d.Reminders.GetReminders)
			reminders.GET("/:memberId/upcoming", d.Reminders.GetUpcomingReminders)
			reminders.PUT("/:id/reschedule", d.Reminders.Reschedule)
		}
		api.GET("/reminder/:id", d.Reminders.GetReminder)

		family := api.Group("/family")
		{
			family.POST("", d.Families.CreateFamily)
			family.GET("/:id", d.Families.GetFamily)
		}

		members := api.Group("/members")
		{
			members.POST("", d.Families.AddMember)
			members.GET("", d.Families.GetMembers) // ?familyId=
		}

		api.POST("/dispatch/sweep", d.Dispatch.TriggerSweep)
	}

	return r
}
