// controllers/reminder.go
package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"famhealth-backend/models"
	"famhealth-backend/services"
	"famhealth-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultUpcomingHours = 24

// Layouts accepted for reminder times without an explicit offset.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// ReminderController exposes reminder CRUD over HTTP
type ReminderController struct {
	Service *services.ReminderService
	// Location interprets times sent without an offset.
	Location *time.Location
}

// AddReminderInput defines the expected JSON structure
type AddReminderInput struct {
	MemberID string `json:"memberId" binding:"required"`
	Medicine string `json:"medicine" binding:"required"`
	Dosage   string `json:"dosage"`
	Time     string `json:"time" binding:"required"`
	Note     string `json:"note"`
}

type MarkDoneInput struct {
	ReminderID string `json:"reminderId" binding:"required"`
}

type RescheduleInput struct {
	Time string `json:"time" binding:"required"`
}

// AddReminder creates a pending reminder for a member
func (rc *ReminderController) AddReminder(c *gin.Context) {
	var input AddReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	memberID, err := uuid.Parse(input.MemberID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid member ID format")
		return
	}
	at, err := rc.parseTime(input.Time)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	reminder, err := rc.Service.Add(c.Request.Context(), services.AddReminderInput{
		MemberID:    memberID,
		Substance:   input.Medicine,
		DosageNote:  input.Dosage,
		ScheduledAt: at,
		FreeNote:    input.Note,
	})
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Reminder added successfully", "reminder": reminder})
}

// GetReminders lists every reminder of a member
func (rc *ReminderController) GetReminders(c *gin.Context) {
	memberID, ok := parseIDParam(c, "memberId", "member")
	if !ok {
		return
	}

	reminders, err := rc.Service.List(c.Request.Context(), memberID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNil(reminders))
}

// GetUpcomingReminders lists pending reminders due in the next ?hours (24 by default)
func (rc *ReminderController) GetUpcomingReminders(c *gin.Context) {
	memberID, ok := parseIDParam(c, "memberId", "member")
	if !ok {
		return
	}

	hours := defaultUpcomingHours
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	reminders, err := rc.Service.Upcoming(c.Request.Context(), memberID, hours)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNil(reminders))
}

// MarkDone records that the medicine was taken
func (rc *ReminderController) MarkDone(c *gin.Context) {
	var input MarkDoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	id, err := uuid.Parse(input.ReminderID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reminder ID format")
		return
	}

	reminder, err := rc.Service.MarkDone(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as done", "reminder": reminder})
}

func (rc *ReminderController) GetReminder(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "reminder")
	if !ok {
		return
	}

	reminder, err := rc.Service.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, reminder)
}

func (rc *ReminderController) Reschedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "reminder")
	if !ok {
		return
	}

	var input RescheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	at, err := rc.parseTime(input.Time)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	reminder, err := rc.Service.Reschedule(c.Request.Context(), id, at)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, reminder)
}

func (rc *ReminderController) parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	loc := rc.Location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected RFC3339", raw)
}

func parseIDParam(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func nonNil(rs []models.Reminder) []models.Reminder {
	if rs == nil {
		return []models.Reminder{}
	}
	return rs
}
