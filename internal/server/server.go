package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	_ "github.com/joho/godotenv/autoload"

	"github.com/assetlease/assetlease/internal/config"
	"github.com/assetlease/assetlease/internal/database"
	"github.com/assetlease/assetlease/internal/usecase"
)

// Service is everything the HTTP layer needs from the domain.
type Service interface {
	Health() map[string]string
	Close() error

	RegisterAccount(context.Context, usecase.Account) (usecase.Account, error)
	GetAccountByID(context.Context, uuid.UUID) (usecase.Account, error)
	ListAccounts(context.Context, usecase.ListAccountsOption) ([]usecase.Account, int, error)
	GetMe(context.Context) (usecase.Account, error)

	Decimals() int
	MintTokens(ctx context.Context, to uuid.UUID, amount int64) error
	BalanceOf(context.Context, uuid.UUID) (int64, error)
	Approve(ctx context.Context, spender uuid.UUID, amount int64) error
	Allowance(ctx context.Context, owner, spender uuid.UUID) (int64, error)
	TransferTokens(ctx context.Context, to uuid.UUID, amount int64) error
	ListLedgerEntries(context.Context, usecase.ListLedgerEntriesOption) ([]usecase.LedgerEntry, int, error)

	AwardAsset(ctx context.Context, to uuid.UUID, metadataRef string) (usecase.Asset, error)
	GetAssetByID(context.Context, int64) (usecase.Asset, error)
	ListAssets(context.Context, usecase.ListAssetsOption) ([]usecase.Asset, int, error)
	AssetURI(context.Context, int64) (string, error)
	SetBaseURI(context.Context, string) error
	RenounceMinter(context.Context) error

	OwnerOf(context.Context, int64) (uuid.UUID, error)
	AssetBalanceOf(context.Context, uuid.UUID) (int, error)
	ApproveOperator(ctx context.Context, assetID int64, operatorID uuid.UUID) error
	TransferAsset(ctx context.Context, assetID int64, to uuid.UUID) error
	EffectiveController(context.Context, int64) (usecase.Controller, error)
	InvokeAssetAction(ctx context.Context, assetID int64, action string, payload []byte) (usecase.AssetEvent, error)
	ListAssetEvents(context.Context, usecase.ListAssetEventsOption) ([]usecase.AssetEvent, int, error)
	SupportsCapabilitySet(string) bool

	SetAssetUser(ctx context.Context, assetID int64, userID uuid.UUID, expiresAt time.Time) error
	UserOf(context.Context, int64) (uuid.UUID, error)
	UserExpires(context.Context, int64) (time.Time, error)
	SetEscrowAccount(context.Context, uuid.UUID) error
	GetSettings(context.Context) (usecase.Settings, error)

	MakeProposal(ctx context.Context, assetID, amount int64) (usecase.Proposal, error)
	GetProposalByID(context.Context, int64) (usecase.Proposal, error)
	ListProposals(context.Context, usecase.ListProposalsOption) ([]usecase.Proposal, int, error)
	WithdrawProposal(context.Context, int64) error
	AcceptProposal(ctx context.Context, proposalID int64, expiresAt time.Time) (usecase.Proposal, error)

	InEscrow(context.Context, int64) (bool, error)
	DepositAsset(context.Context, int64) (usecase.Session, error)
	ResolveSession(ctx context.Context, assetID int64, winnerID uuid.UUID) error
	ReleaseSession(ctx context.Context, assetID int64) error
	ListSessions(context.Context, usecase.ListSessionsOption) ([]usecase.Session, int, error)

	ListNotifications(context.Context, usecase.ListNotificationsOption) ([]usecase.Notification, int, int, error)
	ReadNotification(context.Context, uuid.UUID) error
	ReadAllNotifications(context.Context) error
	StreamNotifications(ctx context.Context, userID uuid.UUID) (<-chan usecase.Notification, error)
}

type Server struct {
	port int

	server    Service
	validator *validator.Validate
	logger    *slog.Logger
}

// App bundles the HTTP server with the resources it owns.
type App struct {
	httpServer *http.Server
	service    Service
}

func NewApp(logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listenConn, err := pgx.Connect(ctx, database.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open listen connection: %w", err)
	}

	repo, err := database.New(logger, listenConn)
	if err != nil {
		return nil, err
	}

	sv := usecase.New(repo)
	v := validator.New()

	port, _ := strconv.Atoi(os.Getenv(config.ENV_KEY_PORT))
	s := &Server{
		port:      port,
		server:    sv,
		validator: v,
		logger:    logger,
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &App{
		httpServer: httpServer,
		service:    sv,
	}, nil
}

func (a *App) Addr() string {
	return a.httpServer.Addr
}

func (a *App) ListenAndServe() error {
	return a.httpServer.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return a.service.Close()
}
