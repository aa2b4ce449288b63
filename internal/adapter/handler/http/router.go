package http

import (
	"github.com/gin-gonic/gin"
	"github.com/membora/pointsledger/internal/adapter/config"
	"github.com/membora/pointsledger/internal/core/port"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	userHandler *UserHandler,
	balanceHandler *BalanceHandler,
	logger *zap.Logger) (*Router, error) {

	router := gin.New()

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := NewHandler(logger)

	api := router.Group("/api")
	{
		member := api.Group("/member")
		{
			member.POST("/register", userHandler.RegisterUser)
			member.POST("/login", userHandler.LoginUser)

			private := member.Group("")
			{
				private.Use(authCheck(tokenService, h))
				private.GET("/balance", balanceHandler.UserBalance)
				private.POST("/redeem", balanceHandler.Redeem)
				private.GET("/redemptions", balanceHandler.ListRedemptions)
			}
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
