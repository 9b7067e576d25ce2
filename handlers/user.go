package handlers

import (
	"github.com/gin-gonic/gin"

	"mingle/middleware"
	"mingle/models"
	"mingle/store"
	"mingle/utils"
)

type UpdateUserRequest struct {
	DisplayName  string `json:"display_name"`
	ProfilePhoto string `json:"profile_photo"`
}

func GetCurrentUser(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := Store.GetUserByID(c.Request.Context(), userID)
	if err == store.ErrNotFound {
		utils.NotFound(c, "user not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	utils.Success(c, user.ToResponse())
}

func UpdateCurrentUser(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := Store.UpdateUserProfile(c.Request.Context(), userID, req.DisplayName, req.ProfilePhoto); err != nil {
		utils.InternalError(c, "failed to update user")
		return
	}

	GetCurrentUser(c)
}

func SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.BadRequest(c, "search query is required")
		return
	}

	users, err := Store.SearchUsers(c.Request.Context(), query, 20)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	results := make([]models.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, *users[i].ToResponse())
	}

	utils.Success(c, results)
}
