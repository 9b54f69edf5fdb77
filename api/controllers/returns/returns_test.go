package returns

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-payouts/api/middleware"
	"github.com/angelmondragon/packfinderz-payouts/internal/trust"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db/models"
	"github.com/angelmondragon/packfinderz-payouts/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-payouts/pkg/errors"
)

type stubService struct {
	submitted []trust.SubmitReturnInput
	updated   []trust.UpdateStatusInput
	err       error
}

func (s *stubService) SubmitReturnRequest(_ context.Context, in trust.SubmitReturnInput) (trust.SubmitResult, error) {
	s.submitted = append(s.submitted, in)
	if s.err != nil {
		return trust.SubmitResult{}, s.err
	}
	return trust.SubmitResult{Request: models.ReturnRequest{
		ID:        uuid.New(),
		OrderID:   in.OrderID,
		ProductID: in.ProductID,
		BuyerID:   in.BuyerID,
		Status:    enums.ReturnRequestStatusPending,
	}}, nil
}

func (s *stubService) UpdateStatus(_ context.Context, in trust.UpdateStatusInput) (trust.ReturnRequestDTO, error) {
	s.updated = append(s.updated, in)
	return trust.ReturnRequestDTO{ID: in.RequestID, Status: in.Status}, s.err
}

func do(t *testing.T, method, pattern, path, body, actor string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
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

func TestSubmitUsesActorAsBuyer(t *testing.T) {
	svc := &stubService{}
	buyer := uuid.New()
	orderID := uuid.New()
	productID := uuid.New()

	rec := do(t, http.MethodPost, "/orders/{orderId}/returns", "/orders/"+orderID.String()+"/returns",
		`{"product_id":"`+productID.String()+`","reason":"damaged"}`, buyer.String(), Submit(svc, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.submitted, 1)
	assert.Equal(t, buyer, svc.submitted[0].BuyerID)
	assert.Equal(t, orderID, svc.submitted[0].OrderID)
	assert.Equal(t, productID, svc.submitted[0].ProductID)
	assert.Equal(t, "damaged", svc.submitted[0].Reason)
}

func TestSubmitRejectsMalformedProduct(t *testing.T) {
	svc := &stubService{}
	rec := do(t, http.MethodPost, "/orders/{orderId}/returns", "/orders/"+uuid.NewString()+"/returns",
		`{"product_id":"nope"}`, uuid.NewString(), Submit(svc, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.submitted)
}

func TestSubmitRequiresActor(t *testing.T) {
	rec := do(t, http.MethodPost, "/orders/{orderId}/returns", "/orders/"+uuid.NewString()+"/returns",
		`{"product_id":"`+uuid.NewString()+`"}`, "", Submit(&stubService{}, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateStatusParsesStatus(t *testing.T) {
	svc := &stubService{}
	id := uuid.New()

	rec := do(t, http.MethodPatch, "/returns/{returnId}", "/returns/"+id.String(), `{"status":"approved"}`, "", UpdateStatus(svc, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.updated, 1)
	assert.Equal(t, enums.ReturnRequestStatusApproved, svc.updated[0].Status)

	rec = do(t, http.MethodPatch, "/returns/{returnId}", "/returns/"+id.String(), `{"status":"lost"}`, "", UpdateStatus(svc, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, svc.updated, 1)
}

func TestUpdateStatusMapsIllegalTransition(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeRuleViolation, "illegal status transition")}
	rec := do(t, http.MethodPatch, "/returns/{returnId}", "/returns/"+uuid.NewString(), `{"status":"finished"}`, "", UpdateStatus(svc, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
