package wallets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-payouts/api/middleware"
	"github.com/angelmondragon/packfinderz-payouts/internal/ledger"
	"github.com/angelmondragon/packfinderz-payouts/internal/wallet"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
	"github.com/angelmondragon/packfinderz-payouts/pkg/pagination"
)

type stubWallets struct {
	debits []wallet.DebitInput
	err    error
}

func (s *stubWallets) Get(_ context.Context, sellerID uuid.UUID) (wallet.WalletView, error) {
	return wallet.WalletView{SellerID: sellerID, AvailableBalanceCents: 500}, s.err
}

func (s *stubWallets) Debit(_ context.Context, in wallet.DebitInput) (wallet.DebitResult, error) {
	s.debits = append(s.debits, in)
	if s.err != nil {
		return wallet.DebitResult{}, s.err
	}
	return wallet.DebitResult{DebitedAvailableCents: in.AmountCents, Wallet: wallet.WalletView{SellerID: in.SellerID}}, nil
}

type stubLedger struct {
	from, to time.Time
	page     pagination.Params
	filter   ledger.EarningsFilter
}

func (s *stubLedger) ListTransactionsBySeller(_ context.Context, sellerID uuid.UUID, from, to time.Time, page pagination.Params) (ledger.TransactionPage, error) {
	s.from, s.to, s.page = from, to, page
	txns := ledger.TransactionsFromModels([]models.FinancialTransaction{{
		ID:          uuid.New(),
		SellerID:    sellerID,
		AmountCents: 41000,
		Type:        enums.TransactionTypeCredit,
		Source:      enums.TransactionSourceOrderSettlement,
		Status:      enums.TransactionStatusPending,
	}})
	return ledger.TransactionPage{Transactions: txns, NextCursor: "next"}, nil
}

func (s *stubLedger) SummarizeEarnings(_ context.Context, filter ledger.EarningsFilter) (ledger.EarningsSummary, error) {
	s.filter = filter
	return ledger.EarningsSummary{Count: 2, AmountCents: 25000, ReleasedCents: 8083}, nil
}

func do(method, pattern, path, body, actor string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != "" {
		req = req.WithContext(middleware.WithActorID(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetWallet(t *testing.T) {
	seller := uuid.New()
	rec := do(http.MethodGet, "/sellers/{sellerId}/wallet", "/sellers/"+seller.String()+"/wallet", "", "", Get(&stubWallets{}, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data wallet.WalletView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, seller, body.Data.SellerID)
	assert.Equal(t, int64(500), body.Data.AvailableBalanceCents)
}

func TestWithdrawRequiresOwnWallet(t *testing.T) {
	svc := &stubWallets{}
	seller := uuid.New()

	rec := do(http.MethodPost, "/sellers/{sellerId}/withdrawals", "/sellers/"+seller.String()+"/withdrawals",
		`{"amount_cents":100}`, uuid.NewString(), Withdraw(svc, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.debits)

	rec = do(http.MethodPost, "/sellers/{sellerId}/withdrawals", "/sellers/"+seller.String()+"/withdrawals",
		`{"amount_cents":100}`, seller.String(), Withdraw(svc, nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.debits, 1)
	assert.Equal(t, enums.TransactionSourceWithdrawal, svc.debits[0].Source)
	assert.Nil(t, svc.debits[0].OrderID)
}

func TestWithdrawMapsInsufficientFunds(t *testing.T) {
	svc := &stubWallets{err: pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance cannot cover debit")}
	seller := uuid.New()

	rec := do(http.MethodPost, "/sellers/{sellerId}/withdrawals", "/sellers/"+seller.String()+"/withdrawals",
		`{"amount_cents":100}`, seller.String(), Withdraw(svc, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRefundCarriesOrder(t *testing.T) {
	svc := &stubWallets{}
	seller := uuid.New()
	orderID := uuid.New()

	rec := do(http.MethodPost, "/sellers/{sellerId}/refunds", "/sellers/"+seller.String()+"/refunds",
		`{"order_id":"`+orderID.String()+`","amount_cents":250}`, uuid.NewString(), Refund(svc, nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.debits, 1)
	assert.Equal(t, enums.TransactionSourceRefund, svc.debits[0].Source)
	require.NotNil(t, svc.debits[0].OrderID)
	assert.Equal(t, orderID, *svc.debits[0].OrderID)
}

func TestTransactionsDefaultsToLast30Days(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	svc := &stubLedger{}
	seller := uuid.New()

	rec := do(http.MethodGet, "/sellers/{sellerId}/transactions", "/sellers/"+seller.String()+"/transactions", "", "",
		Transactions(svc, func() time.Time { return now }, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, now, svc.to)
	assert.Equal(t, now.Add(-30*24*time.Hour), svc.from)

	assert.Equal(t, pagination.Params{}, svc.page)

	var body struct {
		Data ledger.TransactionPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Transactions, 1)
	assert.Equal(t, int64(41000), body.Data.Transactions[0].AmountCents)
	assert.Equal(t, "next", body.Data.NextCursor)
}

func TestTransactionsForwardsPageParams(t *testing.T) {
	svc := &stubLedger{}
	seller := uuid.New()

	rec := do(http.MethodGet, "/sellers/{sellerId}/transactions", "/sellers/"+seller.String()+"/transactions?limit=5&cursor=abc", "", "",
		Transactions(svc, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.page)

	rec = do(http.MethodGet, "/sellers/{sellerId}/transactions", "/sellers/"+seller.String()+"/transactions?limit=zero", "", "",
		Transactions(svc, nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEarningsParsesFilters(t *testing.T) {
	svc := &stubLedger{}
	seller := uuid.New()

	rec := do(http.MethodGet, "/platform/earnings", "/platform/earnings?seller_id="+seller.String()+"&month=2026-03", "", "", Earnings(svc, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filter.SellerID)
	assert.Equal(t, seller, *svc.filter.SellerID)
	assert.Nil(t, svc.filter.OrderID)
	require.NotNil(t, svc.filter.Month)
	assert.Equal(t, time.March, svc.filter.Month.Month())

	var body struct {
		Data struct {
			PendingCents int64 `json:"pending_cents"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(25000-8083), body.Data.PendingCents)

	rec = do(http.MethodGet, "/platform/earnings", "/platform/earnings?order_id=bad", "", "", Earnings(svc, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
