package midtrans

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	mdt "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

// SessionItem is one purchasable line forwarded to the Snap session.
type SessionItem struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}

// SessionRequest carries everything needed to open a hosted payment session.
type SessionRequest struct {
	OrderID       string
	GrossAmount   int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Items         []SessionItem
	FinishURL     string
}

// Session is the client-facing handle for a hosted payment page.
type Session struct {
	Token       string
	RedirectURL string
}

// Status mirrors the gateway's view of a payment.
type Status struct {
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
	StatusCode        string
	GrossAmount       string
}

// RefundResult reports the gateway response to a refund attempt.
type RefundResult struct {
	OrderID    string
	StatusCode string
}

// Gateway wraps the Snap and Core API clients behind one surface.
type Gateway struct {
	snap snap.Client
	core coreapi.Client
}

// NewGateway builds a gateway for the configured environment.
func NewGateway(cfg config.MidtransConfig) (*Gateway, error) {
	if strings.TrimSpace(cfg.ServerKey) == "" {
		return nil, fmt.Errorf("midtrans server key is required")
	}

	env := mdt.Sandbox
	if cfg.IsProduction() {
		env = mdt.Production
	}

	g := &Gateway{}
	g.snap.New(cfg.ServerKey, env)
	g.core.New(cfg.ServerKey, env)
	return g, nil
}

// CreateSession opens a Snap session for the given order.
func (g *Gateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if req.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	items := make([]mdt.ItemDetails, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, mdt.ItemDetails{
			ID:    item.ID,
			Name:  truncateItemName(item.Name),
			Price: item.Price,
			Qty:   int32(item.Quantity),
		})
	}

	snapReq := &snap.Request{
		TransactionDetails: mdt.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount,
		},
		Items: &items,
		CustomerDetail: &mdt.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
	}
	if req.FinishURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: req.FinishURL}
	}

	type result struct {
		resp *snap.Response
		err  *mdt.Error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := g.snap.CreateTransaction(snapReq)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "snap session request aborted")
	case res := <-done:
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.err, "creating snap session")
		}
		return &Session{
			Token:       res.resp.Token,
			RedirectURL: res.resp.RedirectURL,
		}, nil
	}
}

// QueryStatus asks the Core API for the authoritative payment state.
func (g *Gateway) QueryStatus(ctx context.Context, orderID string) (*Status, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	type result struct {
		resp *coreapi.TransactionStatusResponse
		err  *mdt.Error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := g.core.CheckTransaction(orderID)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "status check aborted")
	case res := <-done:
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.err, "checking transaction status")
		}
		return &Status{
			OrderID:           res.resp.OrderID,
			TransactionStatus: res.resp.TransactionStatus,
			FraudStatus:       res.resp.FraudStatus,
			PaymentType:       res.resp.PaymentType,
			StatusCode:        res.resp.StatusCode,
			GrossAmount:       res.resp.GrossAmount,
		}, nil
	}
}

// Refund asks the gateway to return the full captured amount.
func (g *Gateway) Refund(ctx context.Context, orderID, reason string) (*RefundResult, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	refundReq := &coreapi.RefundReq{Reason: reason}

	type result struct {
		resp *coreapi.RefundResponse
		err  *mdt.Error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := g.core.RefundTransaction(orderID, refundReq)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "refund request aborted")
	case res := <-done:
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.err, "refunding transaction")
		}
		return &RefundResult{
			OrderID:    res.resp.OrderID,
			StatusCode: res.resp.StatusCode,
		}, nil
	}
}

// Snap caps item names at 50 characters.
const maxItemNameLen = 50

func truncateItemName(name string) string {
	if len(name) <= maxItemNameLen {
		return name
	}
	// Cut on a rune boundary so a multi-byte character never gets split.
	cut := maxItemNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
