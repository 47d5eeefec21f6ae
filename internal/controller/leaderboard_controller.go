package controller

import (
	"edurace_backend/internal/service"
	"edurace_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// GetCourseLeaderboard godoc
// @Summary 课程排行榜
// @Description 按积分排序的课程内排名，同分名次相同
// @Tags 排行榜
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.LeaderboardEntry}
// @Router /api/courses/{id}/leaderboard [get]
func (c *LeaderboardController) GetCourseLeaderboard(ctx *gin.Context) {
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	entries, err := c.LeaderboardService.GetLeaderboard(ctx.Request.Context(), courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// GetMyRank godoc
// @Summary 我的课程名次
// @Description 返回当前用户在课程内的名次，未上榜为 0
// @Tags 排行榜
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=object}
// @Router /api/courses/{id}/leaderboard/me [get]
func (c *LeaderboardController) GetMyRank(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	rank, err := c.LeaderboardService.StudentRank(courseID, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"rank": rank})
}

// GetGlobalRanking godoc
// @Summary 平台总分榜
// @Description 平台维度按用户累计积分取前 N
// @Tags 排行榜
// @Produce  json
// @Param   limit query int false "返回数量，默认 50"
// @Success 200 {object} util.Response{data=[]service.GlobalRankingEntry}
// @Router /api/ranking [get]
func (c *LeaderboardController) GetGlobalRanking(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	ranking, err := c.LeaderboardService.GetGlobalRanking(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, ranking)
}
