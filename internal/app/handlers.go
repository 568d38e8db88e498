package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgUserNotFound  = "User not found"
	msgSlotTaken     = "Schedule already taken"
	msgUsernameTaken = "Username already taken"

	msgSlotUnavailable  = "Slot not available"
	msgCalendarConflict = "Calendar account conflict"
)

// GET /users/:username/availability?date=YYYY-MM-DD
func (a *App) GetAvailabilityHandler(c *gin.Context) {
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		a.respondError(c, bindError(err), msgUserNotFound, "")
		return
	}
	day, err := parseCalendarDate(q.Date, a.Location)
	if err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}

	out, err := a.GetAvailability(c.Request.Context(), c.Param("username"), day)
	if err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /users/:username/blocked-dates?year=YYYY&month=M
func (a *App) GetBlockedDatesHandler(c *gin.Context) {
	var q blockedDatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		a.respondError(c, bindError(err), msgUserNotFound, "")
		return
	}
	year, month, err := q.parse()
	if err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}

	out, err := a.GetBlockedDates(c.Request.Context(), c.Param("username"), year, month)
	if err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /users/:username/schedule
func (a *App) CreateScheduleHandler(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, bindError(err), msgUserNotFound, msgSlotTaken)
		return
	}
	in, err := req.validate(a.now(), a.Location)
	if err != nil {
		a.respondError(c, err, msgUserNotFound, msgSlotTaken)
		return
	}

	if _, err := a.CreateBooking(c.Request.Context(), c.Param("username"), in); err != nil {
		a.respondError(c, err, msgUserNotFound, msgSlotTaken)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// GET /users/:username
func (a *App) GetProfileHandler(c *gin.Context) {
	u, err := a.DB.UserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":  u.Username,
		"name":      u.Name,
		"bio":       u.Bio,
		"avatarUrl": u.AvatarURL,
	})
}

// POST /users
func (a *App) RegisterHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, bindError(err), "", msgUsernameTaken)
		return
	}
	req, err := req.validate()
	if err != nil {
		a.respondError(c, err, "", msgUsernameTaken)
		return
	}

	u, token, err := a.Register(c.Request.Context(), req)
	if err != nil {
		a.respondError(c, err, "", msgUsernameTaken)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u, "token": token})
}

// PUT /users/profile
func (a *App) UpdateProfileHandler(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, bindError(err), msgUserNotFound, "")
		return
	}
	if err := a.UpdateProfile(c.Request.Context(), SessionUserID(c), *req.Bio); err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /users/time-intervals
func (a *App) SetTimeIntervalsHandler(c *gin.Context) {
	var req timeIntervalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, bindError(err), msgUserNotFound, "")
		return
	}
	intervals, err := req.validate()
	if err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}
	if err := a.SetTimeIntervals(c.Request.Context(), SessionUserID(c), intervals); err != nil {
		a.respondError(c, err, msgUserNotFound, "")
		return
	}
	c.Status(http.StatusCreated)
}
