// Package httpclient implements ledger.Client over the accounting API's
// JSON/REST interface.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/payroll"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every ledger call. A timeout surfaces as a fatal
// ledger.Error with StatusCode 0.
const DefaultTimeout = 15 * time.Second

// =============================================================================
// WIRE TYPES
// =============================================================================

type accountJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listResponse struct {
	Accounts []accountJSON `json:"accounts"`
	Classes  []accountJSON `json:"classes"`
}

type payeeJSON struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	PrintOnCheckName string `json:"print_on_check_name"`
	SyncToken        string `json:"sync_token"`
}

type payeeUpdateJSON struct {
	SyncToken        string `json:"sync_token"`
	PrintOnCheckName string `json:"print_on_check_name"`
	Sparse           bool   `json:"sparse"`
}

type payeeRefJSON struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type checkLineJSON struct {
	AccountID   string `json:"account_id"`
	ClassID     string `json:"class_id,omitempty"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type checkJSON struct {
	Payee         payeeRefJSON    `json:"payee"`
	BankAccountID string          `json:"bank_account_id"`
	TxnDate       string          `json:"txn_date,omitempty"`
	Memo          string          `json:"memo"`
	Lines         []checkLineJSON `json:"lines"`
	Total         string          `json:"total"`
}

type createdJSON struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one ledger company with one access token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL, token string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		http:    httpClient,
		log:     log.Named("ledger.http"),
	}
}

func (c *Client) FindAccountID(ctx context.Context, name string) (string, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/accounts?name="+url.QueryEscape(name), nil, "", &resp); err != nil {
		return "", err
	}
	return matchName(resp.Accounts, name), nil
}

func (c *Client) FindClassID(ctx context.Context, name string) (string, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/classes?name="+url.QueryEscape(name), nil, "", &resp); err != nil {
		return "", err
	}
	return matchName(resp.Classes, name), nil
}

func (c *Client) GetPayee(ctx context.Context, ref payroll.PayeeRef) (ledger.Payee, error) {
	var p payeeJSON
	if err := c.do(ctx, http.MethodGet, payeePath(ref), nil, "", &p); err != nil {
		var le *ledger.Error
		if errors.As(err, &le) && le.StatusCode == http.StatusNotFound {
			le.Err = ledger.ErrPayeeNotFound
		}
		return ledger.Payee{}, err
	}
	return ledger.Payee{
		Ref:              ref,
		DisplayName:      p.DisplayName,
		PrintOnCheckName: p.PrintOnCheckName,
		SyncToken:        p.SyncToken,
	}, nil
}

func (c *Client) UpdatePayeeName(ctx context.Context, payee ledger.Payee, printName string) error {
	body := payeeUpdateJSON{SyncToken: payee.SyncToken, PrintOnCheckName: printName, Sparse: true}
	return c.do(ctx, http.MethodPost, payeePath(payee.Ref), body, "", nil)
}

func (c *Client) CreateCheck(ctx context.Context, check ledger.Check) (string, error) {
	body := checkJSON{
		Payee:         payeeRefJSON{Type: string(check.Payee.Type), ID: check.Payee.ID},
		BankAccountID: check.BankAccountID,
		TxnDate:       check.TxnDate.String(),
		Memo:          check.Memo,
		Total:         check.Total().StringFixed(2),
	}
	for _, l := range check.Lines {
		body.Lines = append(body.Lines, checkLineJSON{
			AccountID:   l.AccountID,
			ClassID:     l.ClassID,
			Description: l.Description,
			Amount:      l.Amount.StringFixed(2),
		})
	}

	var created createdJSON
	if err := c.do(ctx, http.MethodPost, "/checks", body, check.IdempotencyKey, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("ledger response missing check id")
	}
	return created.ID, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do sends one request. Transport failures become ledger.Error with
// StatusCode 0; non-2xx responses carry their status and message.
func (c *Client) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("ledger request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &ledger.Error{StatusCode: 0, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("ledger request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ledger.Error{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ledger response: %w", err)
	}
	return nil
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed errorResponse
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		return strings.TrimSpace(parsed.Error.Message)
	}
	return strings.TrimSpace(string(raw))
}

func payeePath(ref payroll.PayeeRef) string {
	collection := "/vendors/"
	if ref.Type == payroll.PayeeEmployee {
		collection = "/employees/"
	}
	return collection + url.PathEscape(ref.ID)
}

// matchName returns the ID of the record whose name matches exactly,
// ignoring case. The API's name filter is a prefix search.
func matchName(records []accountJSON, name string) string {
	for _, r := range records {
		if strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(name)) {
			return r.ID
		}
	}
	return ""
}

var _ ledger.Client = (*Client)(nil)
