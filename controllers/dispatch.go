// controllers/dispatch.go
package controllers

import (
	"errors"
	"net/http"

	"famhealth-backend/services"
	"famhealth-backend/utils"

	"github.com/gin-gonic/gin"
)

type DispatchController struct {
	Scheduler *services.Scheduler
}

// TriggerSweep runs one sweep immediately and returns its report
func (dc *DispatchController) TriggerSweep(c *gin.Context) {
	report, err := dc.Scheduler.Sweep(c.Request.Context())
	if errors.Is(err, services.ErrSweepInProgress) {
		utils.RespondWithError(c, http.StatusConflict, "A sweep is already running")
		return
	}
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
