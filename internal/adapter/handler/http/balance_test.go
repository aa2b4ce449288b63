package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/membora/pointsledger/internal/core/domain"
	"github.com/membora/pointsledger/internal/core/port"
	"github.com/membora/pointsledger/internal/core/port/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T, service port.Service) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger, _ := zap.NewProduction()

	bh, err := NewBalanceHandler(service, logger)
	require.NoError(t, err)

	// auth is tested through its own middleware; here the payload is
	// injected directly
	router := gin.New()
	authStub := func(ctx *gin.Context) {
		ctx.Set(userPayloadKey, &port.TokenPayload{UserID: 1})
	}
	router.GET("/api/member/balance", authStub, bh.UserBalance)
	router.POST("/api/member/redeem", authStub, bh.Redeem)
	router.GET("/api/member/redemptions", authStub, bh.ListRedemptions)
	return router
}

func TestBalanceHandler_Redeem(t *testing.T) {
	type redeemTest struct {
		name       string
		body       string
		mock       func(service *mock.MockService)
		expCode    int
		expStatus  domain.RedemptionStatus
		expBalance int64
	}

	tests := []redeemTest{
		{
			name: "Confirmed",
			body: `{"product": 10}`,
			mock: func(service *mock.MockService) {
				service.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
					Return(domain.Confirmed(40), nil)
			},
			expCode:    http.StatusOK,
			expStatus:  domain.RedemptionConfirmed,
			expBalance: 40,
		},
		{
			name: "Insufficient points",
			body: `{"product": 10}`,
			mock: func(service *mock.MockService) {
				service.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
					Return(domain.Rejected(domain.ErrInsufficientPoints), nil)
			},
			expCode:   http.StatusPaymentRequired,
			expStatus: domain.RedemptionRejected,
		},
		{
			name: "Unknown product",
			body: `{"product": 99}`,
			mock: func(service *mock.MockService) {
				service.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(99)).
					Return(domain.Rejected(domain.ErrInvalidRequest), nil)
			},
			expCode:   http.StatusUnprocessableEntity,
			expStatus: domain.RedemptionRejected,
		},
		{
			name: "Store unavailable",
			body: `{"product": 10}`,
			mock: func(service *mock.MockService) {
				service.EXPECT().InitiateRedemption(gomock.Any(), uint64(1), uint64(10)).
					Return(domain.Failed(domain.ErrStoreUnavailable), nil)
			},
			expCode:   http.StatusServiceUnavailable,
			expStatus: domain.RedemptionFailed,
		},
		{
			name:    "Malformed body",
			body:    `{"product":`,
			mock:    func(service *mock.MockService) {},
			expCode: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mockCtrl := gomock.NewController(t)
			defer mockCtrl.Finish()

			service := mock.NewMockService(mockCtrl)
			test.mock(service)
			router := setupRouter(t, service)

			req := httptest.NewRequest(http.MethodPost, "/api/member/redeem",
				bytes.NewBufferString(test.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, test.expCode, w.Code)
			if test.expStatus == "" {
				return
			}

			resp := redeemResponse{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, test.expStatus, resp.Status)
			if test.expStatus == domain.RedemptionConfirmed {
				require.NotNil(t, resp.Balance)
				assert.Equal(t, test.expBalance, *resp.Balance)
			} else {
				assert.Nil(t, resp.Balance)
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestBalanceHandler_UserBalance(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	service := mock.NewMockService(mockCtrl)
	service.EXPECT().GetBalance(gomock.Any(), uint64(1)).Return(int64(100), nil)
	router := setupRouter(t, service)

	req := httptest.NewRequest(http.MethodGet, "/api/member/balance", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	resp := balanceResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(100), resp.Balance)
}

func TestBalanceHandler_ListRedemptions(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	service := mock.NewMockService(mockCtrl)
	service.EXPECT().GetRedemptionsByUser(gomock.Any(), uint64(1)).
		Return([]*domain.Redemption{{UserID: 1, ProductID: 10, PointsSpent: 60}}, nil)
	router := setupRouter(t, service)

	req := httptest.NewRequest(http.MethodGet, "/api/member/redemptions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []redemptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, uint64(10), resp[0].Product)
	assert.Equal(t, int64(60), resp[0].PointsSpent)
}
