// controllers/family.go
package controllers

import (
	"net/http"

	"famhealth-backend/models"
	"famhealth-backend/repository"
	"famhealth-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FamilyController manages households and their members
type FamilyController struct {
	Households repository.Households
}

// CreateFamilyInput defines the expected JSON structure for creating a family
type CreateFamilyInput struct {
	Name     string  `json:"name" binding:"required"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Channel  string  `json:"channel" binding:"omitempty,oneof=email sms whatsapp"`
	Timezone string  `json:"timezone"`
}

type AddMemberInput struct {
	FamilyID string `json:"familyId" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Timezone string `json:"timezone"`
}

// CreateFamily registers a household and its notification channel
func (fc *FamilyController) CreateFamily(c *gin.Context) {
	var input CreateFamilyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	family := models.Family{
		Name:     input.Name,
		Channel:  input.Channel,
		Timezone: input.Timezone,
	}
	if family.Channel == "" {
		family.Channel = models.ChannelEmail
	}

	if input.Email != nil {
		if !utils.ValidateEmail(*input.Email) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid email format")
			return
		}
		family.Email = *input.Email
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		family.Phone = *input.Phone
	}
	if !utils.ValidateTimezone(family.Timezone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid timezone")
		return
	}

	// The chosen channel needs somewhere to deliver to.
	switch family.Channel {
	case models.ChannelEmail:
		if family.Email == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Email is required for the email channel")
			return
		}
	default:
		if family.Phone == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Phone is required for the "+family.Channel+" channel")
			return
		}
	}

	if err := fc.Households.CreateFamily(c.Request.Context(), &family); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, family)
}

func (fc *FamilyController) GetFamily(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "family")
	if !ok {
		return
	}

	family, err := fc.Households.Family(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, family)
}

// AddMember adds a person to an existing household
func (fc *FamilyController) AddMember(c *gin.Context) {
	var input AddMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	familyID, err := uuid.Parse(input.FamilyID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid family ID format")
		return
	}
	if !utils.ValidateTimezone(input.Timezone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid timezone")
		return
	}

	member := models.Member{
		FamilyID: familyID,
		Name:     input.Name,
		Role:     input.Role,
		Timezone: input.Timezone,
	}
	if err := fc.Households.AddMember(c.Request.Context(), &member); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// GetMembers lists the members of ?familyId
func (fc *FamilyController) GetMembers(c *gin.Context) {
	familyID, err := uuid.Parse(c.Query("familyId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "familyId query parameter is required")
		return
	}

	members, err := fc.Households.Members(c.Request.Context(), familyID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	if members == nil {
		members = []models.Member{}
	}

	c.JSON(http.StatusOK, members)
}
