package controller

import (
	"edurace_backend/internal/repository"
	"edurace_backend/internal/service"
	"edurace_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	BadgeService *service.BadgeService
	PaymentRepo  *repository.PaymentRepository
}

func NewUserController(badgeService *service.BadgeService, paymentRepo *repository.PaymentRepository) *UserController {
	return &UserController{
		BadgeService: badgeService,
		PaymentRepo:  paymentRepo,
	}
}

// MyBadges godoc
// @Summary 我的徽章
// @Description 返回当前用户获得的连胜徽章
// @Tags 用户
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Badge}
// @Router /api/users/me/badges [get]
func (c *UserController) MyBadges(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	badges, err := c.BadgeService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// MyPayments godoc
// @Summary 我的缴费记录
// @Tags 用户
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Payment}
// @Router /api/users/me/payments [get]
func (c *UserController) MyPayments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	payments, err := c.PaymentRepo.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, payments)
}
