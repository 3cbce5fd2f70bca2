package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"returns-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	label   *models.ReturnLabel
	labels  []models.ReturnLabel
	entries []models.AuditEntry
	err     error
}

func (f *fakeReader) GetLabelByRMA(ctx context.Context, rmaID string) (*models.ReturnLabel, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.label == nil {
		return nil, fmt.Errorf("label %s: %w", rmaID, models.ErrLabelNotFound)
	}
	return f.label, nil
}

func (f *fakeReader) GetLabelsByOrderID(ctx context.Context, orderID string) ([]models.ReturnLabel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.labels, nil
}

func (f *fakeReader) GetAuditEntriesByRequestID(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func newTestRouter(reader ReturnReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(nil, reader, 0).SetupRoutes(router)
	return router
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetLabelFound(t *testing.T) {
	reader := &fakeReader{label: &models.ReturnLabel{
		RMAID:        "RMA-2025-000001",
		OrderID:      "20001",
		Carrier:      "DHL",
		ShipmentType: models.ProcessStandardPickup,
	}}

	rec := get(t, newTestRouter(reader), "/api/v1/returns/RMA-2025-000001")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RMA-2025-000001")
}

func TestGetLabelNotFoundIs404(t *testing.T) {
	rec := get(t, newTestRouter(&fakeReader{}), "/api/v1/returns/RMA-2025-999999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLabelRepositoryFaultIs503(t *testing.T) {
	reader := &fakeReader{err: fmt.Errorf("connection refused")}

	rec := get(t, newTestRouter(reader), "/api/v1/returns/RMA-2025-000001")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code,
		"a repository fault is retryable, not a missing label")
}

func TestGetOrderReturns(t *testing.T) {
	reader := &fakeReader{labels: []models.ReturnLabel{
		{RMAID: "RMA-2025-000001", OrderID: "20001"},
		{RMAID: "RMA-2025-000002", OrderID: "20001"},
	}}

	rec := get(t, newTestRouter(reader), "/api/v1/orders/20001/returns")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OrderID string               `json:"order_id"`
		Labels  []models.ReturnLabel `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "20001", body.OrderID)
	require.Len(t, body.Labels, 2)
}

func TestGetAuditTrail(t *testing.T) {
	now := time.Now()
	reader := &fakeReader{entries: []models.AuditEntry{
		{RequestID: "req-1", Seq: 1, Stage: models.StateReceived, Outcome: models.AuditOutcomeSuccess, CreatedAt: now},
		{RequestID: "req-1", Seq: 2, Stage: models.StateValidating, Outcome: models.AuditOutcomeSuccess, CreatedAt: now},
	}}

	rec := get(t, newTestRouter(reader), "/api/v1/requests/req-1/audit")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RequestID string              `json:"request_id"`
		Entries   []models.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-1", body.RequestID)
	require.Len(t, body.Entries, 2)
	assert.Equal(t, 1, body.Entries[0].Seq)
}
