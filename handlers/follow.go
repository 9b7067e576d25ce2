package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mingle/metrics"
	"mingle/middleware"
	"mingle/models"
	"mingle/store"
	"mingle/utils"
)

type FollowRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func paramUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		utils.BadRequest(c, "invalid user id")
		return 0, false
	}
	return id, true
}

func SendFollowRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.UserID == userID {
		utils.BadRequest(c, "cannot follow yourself")
		return
	}

	ctx := c.Request.Context()

	if _, err := Store.GetUserByID(ctx, req.UserID); err != nil {
		if err == store.ErrNotFound {
			utils.NotFound(c, "user not found")
		} else {
			utils.InternalError(c, "database error")
		}
		return
	}

	status, err := Store.FollowStatus(ctx, userID, req.UserID)
	if err == nil {
		if status == models.FollowAccepted {
			utils.BadRequest(c, "already following")
		} else {
			utils.BadRequest(c, "follow request already sent")
		}
		return
	}
	if err != store.ErrNotFound {
		utils.InternalError(c, "database error")
		return
	}

	if _, err := Store.CreateFollow(ctx, userID, req.UserID); err != nil {
		if err == store.ErrDuplicateFollow {
			utils.BadRequest(c, "follow request already sent")
		} else {
			utils.InternalError(c, "failed to send follow request")
		}
		return
	}
	metrics.FollowRequests.Inc()

	utils.Success(c, gin.H{"message": "follow request sent"})
}

func AcceptFollowRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	followerID, ok := paramUserID(c)
	if !ok {
		return
	}

	err := Store.AcceptFollow(c.Request.Context(), followerID, userID)
	if err == store.ErrNotFound {
		utils.NotFound(c, "follow request not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "failed to accept follow request")
		return
	}

	utils.Success(c, gin.H{"message": "follow request accepted"})
}

func DeclineFollowRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	followerID, ok := paramUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	status, err := Store.FollowStatus(ctx, followerID, userID)
	if err == store.ErrNotFound || (err == nil && status != models.FollowPending) {
		utils.NotFound(c, "follow request not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	if err := Store.DeleteFollow(ctx, followerID, userID); err != nil && err != store.ErrNotFound {
		utils.InternalError(c, "failed to decline follow request")
		return
	}

	utils.Success(c, nil)
}

// Unfollow removes the caller's edge toward the target, whether it was still
// pending or already accepted.
func Unfollow(c *gin.Context) {
	userID := middleware.GetUserID(c)
	followedID, ok := paramUserID(c)
	if !ok {
		return
	}

	err := Store.DeleteFollow(c.Request.Context(), userID, followedID)
	if err == store.ErrNotFound {
		utils.NotFound(c, "not following this user")
		return
	}
	if err != nil {
		utils.InternalError(c, "failed to unfollow")
		return
	}

	utils.Success(c, nil)
}

func GetFollowers(c *gin.Context) {
	userID := middleware.GetUserID(c)

	followers, err := Store.ListFollowers(c.Request.Context(), userID, models.FollowAccepted)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	if followers == nil {
		followers = []models.FollowWithUser{}
	}
	utils.Success(c, followers)
}

func GetFollowing(c *gin.Context) {
	userID := middleware.GetUserID(c)

	following, err := Store.ListFollowing(c.Request.Context(), userID, models.FollowAccepted)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	if following == nil {
		following = []models.FollowWithUser{}
	}
	utils.Success(c, following)
}

func GetFollowRequests(c *gin.Context) {
	userID := middleware.GetUserID(c)

	requests, err := Store.ListFollowers(c.Request.Context(), userID, models.FollowPending)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	if requests == nil {
		requests = []models.FollowWithUser{}
	}
	utils.Success(c, requests)
}
