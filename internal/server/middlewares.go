package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/assetlease/assetlease/internal/config"
)

// getUID resolves the caller's account id from headers. Internal
// services pass X-Client-Id with the shared secret alongside X-Uid;
// everything else just sends X-Uid (identity verification is a
// gateway concern in front of this API).
func (s *Server) getUID(c echo.Context) (string, error) {
	var (
		reqClientID = c.Request().Header.Get(config.HEADER_KEY_X_CLIENT_ID)
		reqUID      = c.Request().Header.Get(config.HEADER_KEY_X_UID)
		clientID    = os.Getenv(config.ENV_KEY_CLIENT_ID)
	)

	if reqClientID != "" && reqUID != "" && reqClientID == clientID {
		s.logger.Debug("internal client request", slog.String("uid", reqUID))
		return reqUID, nil
	}

	if reqUID == "" {
		return "", c.JSON(401, map[string]string{"error": "X-Uid header is required"})
	}
	return reqUID, nil
}

// AuthMiddleware resolves the caller to an account and stuffs its id
// and role into the downstream context, where the usecase layer reads
// them back for every authorization decision.
func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		uid, err := s.getUID(c)
		if err != nil {
			return err
		}

		accountID, err := uuid.Parse(uid)
		if err != nil {
			return c.JSON(401, map[string]string{
				"error":   err.Error(),
				"message": "Invalid account id",
			})
		}

		account, err := s.server.GetAccountByID(ctx, accountID)
		if err != nil {
			return c.JSON(401, map[string]string{
				"error":   err.Error(),
				"message": "Account not found",
			})
		}

		ctx = context.WithValue(ctx, config.CTX_KEY_USER_ID, account.ID)
		ctx = context.WithValue(ctx, config.CTX_KEY_USER_ROLE, account.Role)

		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
