package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/warp/payroll-engine/ledger"
	"go.uber.org/zap"
)

// TokenSource returns the stored ledger access token, or "" when the
// organization never connected a ledger. Refreshing tokens is not its job.
type TokenSource interface {
	LedgerToken(ctx context.Context) (string, error)
}

// Connector builds a Client from the stored credential.
type Connector struct {
	BaseURL string
	Tokens  TokenSource
	HTTP    *http.Client
	Log     *zap.Logger
}

func (c *Connector) Connect(ctx context.Context) (ledger.Client, error) {
	if strings.TrimSpace(c.BaseURL) == "" || c.Tokens == nil {
		return nil, ledger.ErrNotConnected
	}
	token, err := c.Tokens.LedgerToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger token: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, ledger.ErrNotConnected
	}
	return New(c.BaseURL, token, c.HTTP, c.Log), nil
}

var _ ledger.Connector = (*Connector)(nil)
