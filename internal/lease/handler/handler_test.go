package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"locatio/internal/deposit"
	"locatio/internal/event"
	"locatio/internal/lease/service"
	leasestore "locatio/internal/lease/store"
	"locatio/internal/notice"
	"locatio/internal/regularization"
	"locatio/internal/revision"
	"locatio/internal/signature/mocks"
)

// Handler tests run requests through the registered chi router against the
// real service wired over in-memory stores; only the signature provider is
// mocked.
type LeaseHandlerSuite struct {
	suite.Suite
	router       chi.Router
	mockProvider *mocks.MockProvider
}

func TestLeaseHandlerSuite(t *testing.T) {
	suite.Run(t, new(LeaseHandlerSuite))
}

func (s *LeaseHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.mockProvider = mocks.NewMockProvider(ctrl)

	svc := service.New(
		leasestore.NewInMemoryStore(),
		revision.NewInMemoryStore(),
		notice.NewInMemoryStore(),
		regularization.NewInMemoryStore(),
		deposit.NewInMemoryStore(),
		service.WithEventPublisher(event.NewPublisher(event.NewMemorySink())),
		service.WithSignatureProvider(s.mockProvider),
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)
}

func (s *LeaseHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *LeaseHandlerSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *LeaseHandlerSuite) createLease(method string) string {
	w := s.do(http.MethodPost, "/leases", map[string]any{
		"owner_id":          uuid.NewString(),
		"tenant_id":         uuid.NewString(),
		"property_id":       uuid.NewString(),
		"start_date":        "2023-04-01",
		"monthly_rent":      850,
		"charges_provision": 120,
		"deposit_amount":    850,
		"signature_method":  method,
		"revision_anchor":   map[string]any{"month": 4, "day": 1},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.decode(w)["id"].(string)
}

func (s *LeaseHandlerSuite) sign(leaseID, party, method string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/leases/"+leaseID+"/signatures", map[string]any{
		"party":        party,
		"method":       method,
		"evidence_ref": "scan-" + party,
	})
}

func (s *LeaseHandlerSuite) activateLease() string {
	leaseID := s.createLease("manual_physical")
	s.Require().Equal(http.StatusOK, s.sign(leaseID, "owner", "manual_physical").Code)
	w := s.sign(leaseID, "tenant", "manual_physical")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().Equal("active", s.decode(w)["status"])
	return leaseID
}

func (s *LeaseHandlerSuite) TestCreateLease() {
	s.Run("valid body creates a draft", func() {
		w := s.do(http.MethodPost, "/leases", map[string]any{
			"owner_id":          uuid.NewString(),
			"tenant_id":         uuid.NewString(),
			"property_id":       uuid.NewString(),
			"start_date":        "2023-04-01",
			"end_date":          "2026-03-31",
			"monthly_rent":      850,
			"charges_provision": 120,
			"deposit_amount":    850,
			"signature_method":  "electronic",
			"revision_anchor":   map[string]any{"month": 4, "day": 1},
		})
		s.Equal(http.StatusCreated, w.Code, w.Body.String())

		resp := s.decode(w)
		s.Equal("draft", resp["status"])
		s.Equal("2026-03-31", resp["end_date"])
		s.Equal(float64(1), resp["version"])
	})

	s.Run("malformed owner id is rejected", func() {
		w := s.do(http.MethodPost, "/leases", map[string]any{
			"owner_id":         "not-a-uuid",
			"tenant_id":        uuid.NewString(),
			"property_id":      uuid.NewString(),
			"start_date":       "2023-04-01",
			"monthly_rent":     850,
			"signature_method": "electronic",
			"revision_anchor":  map[string]any{"month": 4, "day": 1},
		})
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation", s.decode(w)["error"])
	})

	s.Run("unknown signature method is rejected", func() {
		w := s.do(http.MethodPost, "/leases", map[string]any{
			"owner_id":         uuid.NewString(),
			"tenant_id":        uuid.NewString(),
			"property_id":      uuid.NewString(),
			"start_date":       "2023-04-01",
			"monthly_rent":     850,
			"signature_method": "fax",
			"revision_anchor":  map[string]any{"month": 4, "day": 1},
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("non-JSON body is rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/leases", bytes.NewReader([]byte("not json")))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *LeaseHandlerSuite) TestGetLease() {
	leaseID := s.createLease("manual_physical")

	w := s.do(http.MethodGet, "/leases/"+leaseID, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(leaseID, s.decode(w)["id"])

	w = s.do(http.MethodGet, "/leases/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/leases/garbage", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LeaseHandlerSuite) TestListLeases() {
	s.createLease("manual_physical")
	s.createLease("electronic")

	w := s.do(http.MethodGet, "/leases", nil)
	s.Equal(http.StatusOK, w.Code)
	leases := s.decode(w)["leases"].([]any)
	s.Len(leases, 2)
}

func (s *LeaseHandlerSuite) TestRecordSignature() {
	s.Run("both parties signing activates the lease", func() {
		s.activateLease()
	})

	s.Run("method mismatch maps to conflict", func() {
		leaseID := s.createLease("electronic")
		w := s.sign(leaseID, "owner", "manual_physical")
		s.Equal(http.StatusConflict, w.Code)
		s.Equal("method_mismatch", s.decode(w)["error"])
	})

	s.Run("unknown party is rejected before the service", func() {
		leaseID := s.createLease("manual_physical")
		w := s.sign(leaseID, "witness", "manual_physical")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *LeaseHandlerSuite) TestSendForSignature() {
	document := base64.StdEncoding.EncodeToString([]byte("lease.pdf"))
	signers := []map[string]any{
		{"role": "owner", "name": "Owner", "email": "owner@example.com"},
		{"role": "tenant", "name": "Tenant", "email": "tenant@example.com"},
	}

	s.Run("creates an envelope", func() {
		leaseID := s.createLease("electronic")
		s.mockProvider.EXPECT().
			CreateEnvelope(gomock.Any(), []byte("lease.pdf"), gomock.Len(2)).
			Return("env-42", nil)

		w := s.do(http.MethodPost, "/leases/"+leaseID+"/send", map[string]any{
			"document": document,
			"signers":  signers,
		})
		s.Equal(http.StatusOK, w.Code, w.Body.String())
		resp := s.decode(w)
		s.Equal("env-42", resp["envelope_id"])
		s.Equal("sent_to_tenant", resp["status"])
	})

	s.Run("manual lease cannot be sent", func() {
		leaseID := s.createLease("manual_physical")
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/send", map[string]any{
			"document": document,
			"signers":  signers,
		})
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("document must be base64", func() {
		leaseID := s.createLease("electronic")
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/send", map[string]any{
			"document": "%%%",
			"signers":  signers,
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *LeaseHandlerSuite) TestReconcile() {
	leaseID := s.createLease("electronic")
	s.mockProvider.EXPECT().
		CreateEnvelope(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("env-42", nil)
	w := s.do(http.MethodPost, "/leases/"+leaseID+"/send", map[string]any{
		"document": base64.StdEncoding.EncodeToString([]byte("doc")),
		"signers": []map[string]any{
			{"role": "tenant", "name": "Tenant", "email": "tenant@example.com"},
		},
	})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/leases/"+leaseID+"/signatures/reconcile", map[string]any{
		"provider_status": "completed",
	})
	s.Equal(http.StatusOK, w.Code)
	s.Equal("active", s.decode(w)["status"])
}

func (s *LeaseHandlerSuite) TestDownloadDocument() {
	leaseID := s.createLease("electronic")
	s.mockProvider.EXPECT().
		CreateEnvelope(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("env-42", nil)
	w := s.do(http.MethodPost, "/leases/"+leaseID+"/send", map[string]any{
		"document": base64.StdEncoding.EncodeToString([]byte("doc")),
		"signers": []map[string]any{
			{"role": "tenant", "name": "Tenant", "email": "tenant@example.com"},
		},
	})
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/leases/"+leaseID+"/signatures/reconcile", map[string]any{
		"provider_status": "completed",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	s.mockProvider.EXPECT().
		DownloadSigned(gomock.Any(), "env-42").
		Return([]byte("signed.pdf"), nil)
	w = s.do(http.MethodGet, "/leases/"+leaseID+"/document", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("signed.pdf", w.Body.String())
	s.Equal("application/octet-stream", w.Header().Get("Content-Type"))
}

func (s *LeaseHandlerSuite) TestIssueNotice() {
	noticeDate := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")

	s.Run("terminates an active lease", func() {
		leaseID := s.activateLease()
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/notice", map[string]any{
			"notice_date":   noticeDate,
			"period_months": 3,
			"issued_by":     "tenant",
		})
		s.Equal(http.StatusCreated, w.Code, w.Body.String())

		resp := s.decode(w)
		lease := resp["lease"].(map[string]any)
		s.Equal("terminated", lease["status"])
		s.NotEmpty(resp["notice"].(map[string]any)["move_out_date"])
	})

	s.Run("draft lease maps to conflict", func() {
		leaseID := s.createLease("manual_physical")
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/notice", map[string]any{
			"notice_date":   noticeDate,
			"period_months": 3,
			"issued_by":     "tenant",
		})
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("unknown issuer is rejected", func() {
		leaseID := s.activateLease()
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/notice", map[string]any{
			"notice_date":   noticeDate,
			"period_months": 3,
			"issued_by":     "agency",
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *LeaseHandlerSuite) TestRevisions() {
	leaseID := s.activateLease()

	s.Run("applies a revision", func() {
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/revisions", map[string]any{
			"year":          2024,
			"irl_quarter":   "2023-Q4",
			"reference_irl": 130.26,
			"new_irl":       132.59,
		})
		s.Equal(http.StatusCreated, w.Code, w.Body.String())
		resp := s.decode(w)
		s.InDelta(865.22, resp["new_rent_amount"].(float64), 0.001)
	})

	s.Run("lists revision history", func() {
		w := s.do(http.MethodGet, "/leases/"+leaseID+"/revisions", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Len(s.decode(w)["revisions"].([]any), 1)
	})

	s.Run("non-positive index maps to unprocessable", func() {
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/revisions", map[string]any{
			"year":          2024,
			"irl_quarter":   "2023-Q4",
			"reference_irl": 0,
			"new_irl":       132.59,
		})
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})
}

func (s *LeaseHandlerSuite) TestRegularization() {
	leaseID := s.activateLease()

	w := s.do(http.MethodPost, "/leases/"+leaseID+"/regularizations", map[string]any{
		"year":                 2024,
		"provisions_collected": 1440,
		"lines": []map[string]any{
			{"label": "water", "amount": 600, "recoverable": true},
			{"label": "facade works", "amount": 5000, "recoverable": false},
		},
	})
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	resp := s.decode(w)
	s.Equal("refund", resp["balance_type"])
}

func (s *LeaseHandlerSuite) TestSettlement() {
	terminated := func() string {
		leaseID := s.activateLease()
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/notice", map[string]any{
			"notice_date":   time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02"),
			"period_months": 1,
			"issued_by":     "tenant",
		})
		s.Require().Equal(http.StatusCreated, w.Code)
		return leaseID
	}

	s.Run("computes the settlement", func() {
		leaseID := terminated()
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/settlement", map[string]any{
			"retained_amount":  200,
			"retained_reasons": []string{"cleaning"},
		})
		s.Equal(http.StatusCreated, w.Code, w.Body.String())
		resp := s.decode(w)
		s.InDelta(650, resp["refund_amount"].(float64), 0.01)
		s.Equal(float64(30), resp["restitution_deadline_days"])
	})

	s.Run("retention without reasons is rejected", func() {
		leaseID := terminated()
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/settlement", map[string]any{
			"retained_amount": 200,
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("retained above deposit maps to unprocessable", func() {
		leaseID := terminated()
		w := s.do(http.MethodPost, "/leases/"+leaseID+"/settlement", map[string]any{
			"retained_amount":  2000,
			"retained_reasons": []string{"major damage"},
		})
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("active lease maps to conflict", func() {
		leaseID := s.activateLease()
		w := s.do(http.MethodPost, fmt.Sprintf("/leases/%s/settlement", leaseID), map[string]any{
			"retained_amount": 0,
		})
		s.Equal(http.StatusConflict, w.Code)
	})
}
