package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadyCheck is a named dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

type RouterOptions struct {
	// BookingLimiter guards the public booking endpoint when set.
	BookingLimiter *RateLimiter
	ReadyChecks    []ReadyCheck
}

func NewRouter(a *App, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusMethodNotAllowed)
	})
	router.Use(gin.Recovery(), RequestID(), AccessLog(a.Logger))

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/readyz", readyHandler(opts.ReadyChecks))

	// OAuth2 callback (state carries the user, no session header)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	auth := a.AuthMiddleware()
	scheduleChain := []gin.HandlerFunc{a.CreateScheduleHandler}
	if opts.BookingLimiter != nil {
		scheduleChain = append([]gin.HandlerFunc{opts.BookingLimiter.Middleware()}, scheduleChain...)
	}

	api := router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("", a.RegisterHandler)
			users.PUT("/profile", auth, a.UpdateProfileHandler)
			users.POST("/time-intervals", auth, a.SetTimeIntervalsHandler)

			users.GET("/:username", a.GetProfileHandler)
			users.GET("/:username/availability", a.GetAvailabilityHandler)
			users.GET("/:username/blocked-dates", a.GetBlockedDatesHandler)
			users.POST("/:username/schedule", scheduleChain...)
		}

		calendar := api.Group("/calendar")
		{
			calendar.GET("/auth", auth, a.GoogleAuthHandler)
		}
	}

	return router
}

func readyHandler(checks []ReadyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		var failures []string
		for _, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err := check.Check(ctx)
			cancel()
			if err != nil {
				failures = append(failures, check.Name+": "+err.Error())
			}
		}
		if len(failures) > 0 {
			c.String(http.StatusServiceUnavailable, strings.Join(failures, "; "))
			return
		}
		c.String(http.StatusOK, "ok")
	}
}
