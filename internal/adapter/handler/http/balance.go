package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/membora/pointsledger/internal/core/domain"
	"github.com/membora/pointsledger/internal/core/port"
	"go.uber.org/zap"
)

type BalanceHandler struct {
	Handler
	service port.Service
}

func NewBalanceHandler(service port.Service, logger *zap.Logger) (*BalanceHandler, error) {
	return &BalanceHandler{
		Handler: Handler{logger: logger},
		service: service,
	}, nil
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

func (bh *BalanceHandler) UserBalance(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	balance, err := bh.service.GetBalance(ctx, userID)
	if err != nil {
		bh.handleError(ctx, err)
		return
	}

	bh.handleSuccess(ctx, balanceResponse{Balance: balance})
}

type redeemRequest struct {
	Product uint64 `json:"product"`
}

type redeemResponse struct {
	Status  domain.RedemptionStatus `json:"status"`
	Balance *int64                  `json:"balance,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// Redeem exchanges points for a product. Rejections and failures arrive as
// a total outcome from the executor; only the HTTP status differs between
// "not enough points" (402) and "try again later" (503).
func (bh *BalanceHandler) Redeem(ctx *gin.Context) {
	req := redeemRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		bh.handleValidationError(ctx, err)
		return
	}

	userID := getAuthPayload(ctx).UserID

	outcome, err := bh.service.InitiateRedemption(ctx, userID, req.Product)
	if err != nil {
		bh.handleError(ctx, err)
		return
	}

	if outcome.Status == domain.RedemptionConfirmed {
		bh.handleSuccess(ctx, redeemResponse{
			Status:  outcome.Status,
			Balance: &outcome.NewBalance,
		})
		return
	}

	statusCode, ok := errorStatusMap[outcome.Reason]
	if !ok {
		statusCode = http.StatusInternalServerError
	}
	ctx.JSON(statusCode, redeemResponse{
		Status: outcome.Status,
		Error:  outcome.Reason.Error(),
	})
}

type redemptionResponse struct {
	Product     uint64    `json:"product"`
	PointsSpent int64     `json:"points_spent"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (bh *BalanceHandler) ListRedemptions(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	list, err := bh.service.GetRedemptionsByUser(ctx, userID)
	if err != nil {
		bh.handleError(ctx, err)
		return
	}

	result := make([]redemptionResponse, 0, len(list))
	for _, r := range list {
		result = append(result, redemptionResponse{
			Product:     r.ProductID,
			PointsSpent: r.PointsSpent,
			ProcessedAt: r.ProcessedAt,
		})
	}

	bh.handleSuccess(ctx, result)
}
