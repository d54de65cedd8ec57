package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(NewEchoLogger(s.logger))
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("assetlease", otelecho.WithSkipper(skipper)))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Uid", "X-Client-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/api", s.HelloWorldHandler)

	e.GET("/api/health", s.healthHandler)

	e.GET("/api/websocket", s.websocketHandler)

	e.GET("/api/v1/capabilities/:id", s.GetCapability)

	var accountGroup = e.Group("/api/v1/accounts")
	accountGroup.GET("", s.ListAccounts)
	accountGroup.POST("", s.RegisterAccount)
	accountGroup.GET("/me", s.GetMe, s.AuthMiddleware)
	accountGroup.GET("/:id", s.GetAccountByID)
	accountGroup.GET("/:id/balance", s.GetBalance)

	var tokenGroup = e.Group("/api/v1/tokens")
	tokenGroup.GET("/decimals", s.GetDecimals)
	tokenGroup.POST("/mint", s.MintTokens, s.AuthMiddleware)
	tokenGroup.POST("/transfer", s.TransferTokens, s.AuthMiddleware)
	tokenGroup.POST("/approvals", s.ApproveSpender, s.AuthMiddleware)
	tokenGroup.GET("/approvals", s.GetAllowance)
	tokenGroup.GET("/ledger", s.ListLedgerEntries)

	var assetGroup = e.Group("/api/v1/assets")
	assetGroup.GET("", s.ListAssets)
	assetGroup.POST("", s.AwardAsset, s.AuthMiddleware)
	assetGroup.GET("/:id", s.GetAssetByID)
	assetGroup.GET("/:id/uri", s.GetAssetURI)
	assetGroup.GET("/:id/controller", s.GetEffectiveController)
	assetGroup.POST("/:id/transfer", s.TransferAsset, s.AuthMiddleware)
	assetGroup.PUT("/:id/operator", s.ApproveOperator, s.AuthMiddleware)
	assetGroup.POST("/:id/actions", s.InvokeAssetAction, s.AuthMiddleware)
	assetGroup.GET("/:id/events", s.ListAssetEvents)
	assetGroup.GET("/:id/user", s.GetAssetUser)
	assetGroup.PUT("/:id/user", s.SetAssetUser, s.AuthMiddleware)
	assetGroup.GET("/:id/escrow", s.GetEscrowStatus)
	assetGroup.POST("/:id/deposit", s.DepositAsset, s.AuthMiddleware)
	assetGroup.POST("/:id/resolve", s.ResolveSession, s.AuthMiddleware)
	assetGroup.POST("/:id/release", s.ReleaseSession, s.AuthMiddleware)

	var proposalGroup = e.Group("/api/v1/proposals")
	proposalGroup.GET("", s.ListProposals)
	proposalGroup.POST("", s.MakeProposal, s.AuthMiddleware)
	proposalGroup.GET("/:id", s.GetProposalByID)
	proposalGroup.DELETE("/:id", s.WithdrawProposal, s.AuthMiddleware)
	proposalGroup.POST("/:id/accept", s.AcceptProposal, s.AuthMiddleware)

	var sessionGroup = e.Group("/api/v1/sessions")
	sessionGroup.GET("", s.ListSessions, s.AuthMiddleware)

	var settingGroup = e.Group("/api/v1/settings")
	settingGroup.GET("", s.GetSettings)
	settingGroup.PUT("/escrow-account", s.SetEscrowAccount, s.AuthMiddleware)
	settingGroup.PUT("/base-uri", s.SetBaseURI, s.AuthMiddleware)
	settingGroup.POST("/renounce-minter", s.RenounceMinter, s.AuthMiddleware)

	var notificationGroup = e.Group("/api/v1/notifications")
	notificationGroup.GET("", s.ListNotifications, s.AuthMiddleware)
	notificationGroup.GET("/stream", s.StreamNotifications)
	notificationGroup.PUT("/read", s.ReadAllNotifications, s.AuthMiddleware)
	notificationGroup.PUT("/:id/read", s.ReadNotification, s.AuthMiddleware)

	return e
}
