package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/cargo/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/cargo/pkg/cargo"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testClockUnix     int64 = 1767225600 // 2026-01-01T00:00:00Z
	testSigningKey          = "secret-key"
	contentTypeHeader       = "Content-Type"
	contentTypeJSON         = "application/json"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router   *gin.Engine
	database *gorm.DB
	cfg      Config
}

func newTestServer(test *testing.T, cfg Config) *testServer {
	test.Helper()
	databasePath := filepath.Join(test.TempDir(), "cargo.db")
	database, err := gorm.Open(sqlite.Open(databasePath+"?_pragma=foreign_keys(1)"), &gorm.Config{})
	if err != nil {
		test.Fatalf("open sqlite: %v", err)
	}
	if err := gormstore.AutoMigrate(database); err != nil {
		test.Fatalf("auto migrate: %v", err)
	}
	test.Cleanup(func() {
		if sqlDB, dbErr := database.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	})
	service, err := cargo.NewService(gormstore.New(database), func() int64 { return testClockUnix },
		cargo.WithOperationLogger(NewZapOperationLogger(zap.NewNop())))
	if err != nil {
		test.Fatalf("service init: %v", err)
	}
	router, err := NewRouter(cfg, service, zap.NewNop())
	if err != nil {
		test.Fatalf("router init: %v", err)
	}
	return &testServer{router: router, database: database, cfg: cfg}
}

func (server *testServer) do(test *testing.T, method string, path string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	test.Helper()
	var body *bytes.Reader
	switch typed := payload.(type) {
	case nil:
		body = bytes.NewReader(nil)
	case string:
		body = bytes.NewReader([]byte(typed))
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			test.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set(contentTypeHeader, contentTypeJSON)
	}
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](test *testing.T, recorder *httptest.ResponseRecorder) T {
	test.Helper()
	var decoded T
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		test.Fatalf("decode body %q: %v", recorder.Body.String(), err)
	}
	return decoded
}

func expectStatus(test *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	test.Helper()
	if recorder.Code != expected {
		test.Fatalf("expected status %d, got %d body=%s", expected, recorder.Code, recorder.Body.String())
	}
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func TestInvoiceCreationPostsDoubleEntry(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})

	created := server.do(test, http.MethodPost, "/api/invoice", map[string]any{
		"party_name":  "Acme",
		"description": "Freight",
		"amount":      500,
	})
	expectStatus(test, created, http.StatusCreated)
	createdBody := decodeBody[struct {
		Status    string `json:"status"`
		InvoiceNo int64  `json:"invoice_no"`
		InvoiceID int64  `json:"invoice_id"`
	}](test, created)
	if createdBody.Status != statusSuccess || createdBody.InvoiceNo != 1001 || createdBody.InvoiceID == 0 {
		test.Fatalf("unexpected create response %+v", createdBody)
	}

	listed := server.do(test, http.MethodGet, "/api/invoices", nil)
	expectStatus(test, listed, http.StatusOK)
	invoices := decodeBody[[]invoicePayload](test, listed)
	if len(invoices) != 1 || invoices[0].InvoiceNo != 1001 || invoices[0].Amount != 500.0 {
		test.Fatalf("unexpected invoices %+v", invoices)
	}
	if invoices[0].Status != "unpaid" || invoices[0].Posting != "double_entry" || invoices[0].Date != "2026-01-01" {
		test.Fatalf("unexpected invoice defaults %+v", invoices[0])
	}

	acme := decodeBody[partyLedgerPayload](test, server.do(test, http.MethodGet, "/api/ledger/Acme", nil))
	if len(acme.Entries) != 1 || acme.Entries[0].Debit != 500 || acme.Entries[0].Credit != 0 || acme.Balance != 500 {
		test.Fatalf("unexpected Acme ledger %+v", acme)
	}
	if acme.Entries[0].InvoiceID == nil || *acme.Entries[0].InvoiceID != createdBody.InvoiceID {
		test.Fatalf("expected Acme entry linked to invoice %d, got %+v", createdBody.InvoiceID, acme.Entries[0])
	}
	company := decodeBody[partyLedgerPayload](test, server.do(test, http.MethodGet, "/api/ledger/Company", nil))
	if len(company.Entries) != 1 || company.Entries[0].Debit != 0 || company.Entries[0].Credit != 500 || company.Balance != -500 {
		test.Fatalf("unexpected Company ledger %+v", company)
	}

	second := server.do(test, http.MethodPost, "/api/invoice", map[string]any{"party_name": "Globex", "amount": "75.25"})
	expectStatus(test, second, http.StatusCreated)
	if decodeBody[map[string]any](test, second)["invoice_no"] != float64(1002) {
		test.Fatalf("expected second invoice 1002, got %s", second.Body.String())
	}

	parties := decodeBody[[]partyPayload](test, server.do(test, http.MethodGet, "/api/parties", nil))
	if len(parties) != 3 {
		test.Fatalf("expected three parties, got %+v", parties)
	}
	if parties[0].PartyName != "Acme" || parties[1].PartyName != "Company" || parties[2].PartyName != "Globex" {
		test.Fatalf("expected parties ordered by name, got %+v", parties)
	}
	if parties[1].TotalCredit != 575.25 || parties[1].Balance != -575.25 {
		test.Fatalf("unexpected company summary %+v", parties[1])
	}
}

func TestInvoiceDaybookPosting(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})

	created := server.do(test, http.MethodPost, "/api/invoice", map[string]any{
		"party_name": "Acme",
		"amount":     120,
		"posting":    "daybook",
		"date":       "2026-02-03",
	})
	expectStatus(test, created, http.StatusCreated)

	daybook := decodeBody[[]daybookPayload](test, server.do(test, http.MethodGet, "/api/daybook", nil))
	if len(daybook) != 1 || daybook[0].Type != "invoice" || daybook[0].RefNo != "1001" || daybook[0].Amount != 120 {
		test.Fatalf("unexpected daybook %+v", daybook)
	}
	if daybook[0].Date != "2026-02-03" {
		test.Fatalf("expected daybook date 2026-02-03, got %s", daybook[0].Date)
	}
	parties := decodeBody[[]partyPayload](test, server.do(test, http.MethodGet, "/api/parties", nil))
	if len(parties) != 0 {
		test.Fatalf("daybook posting must not create ledger parties, got %+v", parties)
	}
}

func TestInvoiceCreationErrors(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})
	expectStatus(test, server.do(test, http.MethodPost, "/api/invoice", map[string]any{"invoice_no": 7, "party_name": "Acme", "amount": 10}), http.StatusCreated)

	testCases := []struct {
		name         string
		payload      any
		expectedCode string
	}{
		{name: "zero amount", payload: map[string]any{"party_name": "Acme", "amount": 0}, expectedCode: errorCodeInvalidRequest},
		{name: "negative amount", payload: map[string]any{"party_name": "Acme", "amount": -5}, expectedCode: errorCodeInvalidRequest},
		{name: "missing party", payload: map[string]any{"amount": 5}, expectedCode: errorCodeInvalidRequest},
		{name: "unknown status", payload: map[string]any{"party_name": "Acme", "amount": 5, "status": "overdue"}, expectedCode: errorCodeInvalidRequest},
		{name: "unknown posting", payload: map[string]any{"party_name": "Acme", "amount": 5, "posting": "both"}, expectedCode: errorCodeInvalidRequest},
		{name: "bad date", payload: map[string]any{"party_name": "Acme", "amount": 5, "date": "03/02/2026"}, expectedCode: errorCodeInvalidRequest},
		{name: "duplicate number", payload: map[string]any{"invoice_no": 7, "party_name": "Initech", "amount": 5}, expectedCode: errorCodeDuplicateInvoice},
		{name: "amount beyond storage range", payload: map[string]any{"party_name": "Acme", "amount": "1e400"}, expectedCode: errorCodeInvalidRequest},
		{name: "amount with sub-cent digits", payload: map[string]any{"party_name": "Acme", "amount": 0.001}, expectedCode: errorCodeInvalidRequest},
		{name: "malformed amount", payload: map[string]any{"party_name": "Acme", "amount": "five"}, expectedCode: errorCodeInvalidPayload},
		{name: "malformed json", payload: "{", expectedCode: errorCodeInvalidPayload},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			recorder := server.do(test, http.MethodPost, "/api/invoice", testCase.payload)
			expectStatus(test, recorder, http.StatusBadRequest)
			body := decodeBody[errorEnvelope](test, recorder)
			if body.Status != statusError || body.Code != testCase.expectedCode || body.Message == "" || body.Error != body.Message {
				test.Fatalf("unexpected error body %+v", body)
			}
		})
	}

	invoices := decodeBody[[]invoicePayload](test, server.do(test, http.MethodGet, "/api/invoices", nil))
	if len(invoices) != 1 {
		test.Fatalf("rejected invoices must leave the store unchanged, got %+v", invoices)
	}
	initech := decodeBody[partyLedgerPayload](test, server.do(test, http.MethodGet, "/api/ledger/Initech", nil))
	if len(initech.Entries) != 0 {
		test.Fatalf("duplicate invoice left postings %+v", initech.Entries)
	}
}

func TestInvoiceLookupAndDelete(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})

	first := decodeBody[map[string]any](test, server.do(test, http.MethodPost, "/api/invoice", map[string]any{"party_name": "Acme", "amount": 100}))
	second := decodeBody[map[string]any](test, server.do(test, http.MethodPost, "/api/invoice", map[string]any{"party_name": "Acme", "amount": 40}))
	firstID := int64(first["invoice_id"].(float64))
	secondID := int64(second["invoice_id"].(float64))
	manual := server.do(test, http.MethodPost, "/api/ledger/manual", map[string]any{"party_name": "Acme", "credit": 25, "invoice_id": firstID})
	expectStatus(test, manual, http.StatusCreated)

	fetched := server.do(test, http.MethodGet, fmt.Sprintf("/api/invoice/%d", firstID), nil)
	expectStatus(test, fetched, http.StatusOK)
	if decodeBody[invoicePayload](test, fetched).Amount != 100 {
		test.Fatalf("unexpected invoice %s", fetched.Body.String())
	}

	deleted := server.do(test, http.MethodDelete, fmt.Sprintf("/api/invoice/%d", firstID), nil)
	expectStatus(test, deleted, http.StatusOK)
	if decodeBody[map[string]string](test, deleted)["status"] != statusSuccess {
		test.Fatalf("unexpected delete body %s", deleted.Body.String())
	}

	missing := server.do(test, http.MethodGet, fmt.Sprintf("/api/invoice/%d", firstID), nil)
	expectStatus(test, missing, http.StatusNotFound)
	if decodeBody[errorEnvelope](test, missing).Error != messageInvoiceNotFound {
		test.Fatalf("unexpected not found body %s", missing.Body.String())
	}
	expectStatus(test, server.do(test, http.MethodDelete, fmt.Sprintf("/api/invoice/%d", firstID), nil), http.StatusNotFound)
	expectStatus(test, server.do(test, http.MethodGet, "/api/invoice/abc", nil), http.StatusBadRequest)

	acme := decodeBody[partyLedgerPayload](test, server.do(test, http.MethodGet, "/api/ledger/Acme", nil))
	if len(acme.Entries) != 1 || *acme.Entries[0].InvoiceID != secondID || acme.Balance != 40 {
		test.Fatalf("expected only the second invoice posting, got %+v", acme)
	}
	company := decodeBody[partyLedgerPayload](test, server.do(test, http.MethodGet, "/api/ledger/Company", nil))
	if len(company.Entries) != 1 || company.TotalCredit != 40 {
		test.Fatalf("expected one company credit, got %+v", company)
	}
}

func TestManualEntryRoute(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})

	testCases := []struct {
		name           string
		payload        any
		expectedStatus int
		expectedCode   string
	}{
		{name: "neither debit nor credit", payload: map[string]any{"party_name": "Acme"}, expectedStatus: http.StatusBadRequest, expectedCode: errorCodeMissingAmount},
		{name: "zero debit and credit", payload: map[string]any{"party_name": "Acme", "debit": 0, "credit": "0"}, expectedStatus: http.StatusBadRequest, expectedCode: errorCodeMissingAmount},
		{name: "negative debit", payload: map[string]any{"party_name": "Acme", "debit": -1}, expectedStatus: http.StatusBadRequest, expectedCode: errorCodeInvalidRequest},
		{name: "blank party", payload: map[string]any{"party_name": "  ", "debit": 10}, expectedStatus: http.StatusBadRequest, expectedCode: errorCodeInvalidRequest},
		{name: "unknown invoice", payload: map[string]any{"party_name": "Acme", "debit": 10, "invoice_id": 999}, expectedStatus: http.StatusBadRequest, expectedCode: errorCodeInvalidRequest},
		{name: "malformed json", payload: "[", expectedStatus: http.StatusBadRequest, expectedCode: errorCodeInvalidPayload},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			recorder := server.do(test, http.MethodPost, "/api/ledger/manual", testCase.payload)
			expectStatus(test, recorder, testCase.expectedStatus)
			if code := decodeBody[errorEnvelope](test, recorder).Code; code != testCase.expectedCode {
				test.Fatalf("expected code %s, got %s", testCase.expectedCode, code)
			}
		})
	}

	debit := server.do(test, http.MethodPost, "/api/ledger/manual", map[string]any{"party_name": "Acme", "debit": "12.50", "date": "2026-03-01", "description": "Loading charges"})
	expectStatus(test, debit, http.StatusCreated)
	if decodeBody[map[string]any](test, debit)["entry_id"] == nil {
		test.Fatalf("expected entry_id in %s", debit.Body.String())
	}
	credit := server.do(test, http.MethodPost, "/api/ledger/manual", map[string]any{"party_name": "Acme", "credit": 2.5, "date": "2026-02-01"})
	expectStatus(test, credit, http.StatusCreated)

	ledger := decodeBody[partyLedgerPayload](test, server.do(test, http.MethodGet, "/api/ledger/Acme", nil))
	if len(ledger.Entries) != 2 || ledger.Entries[0].Date != "2026-02-01" || ledger.Entries[1].Description != "Loading charges" {
		test.Fatalf("expected entries ordered by date, got %+v", ledger.Entries)
	}
	if ledger.TotalDebit != 12.5 || ledger.TotalCredit != 2.5 || ledger.Balance != 10 {
		test.Fatalf("unexpected totals %+v", ledger)
	}
}

func TestBookingRoutes(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})

	legacy := server.do(test, http.MethodPost, "/add_booking", map[string]any{"sender_name": "Ravi Traders", "receiver_name": "Mehta & Sons"})
	expectStatus(test, legacy, http.StatusOK)
	if legacy.Body.String() != legacyBookingSaved {
		test.Fatalf("unexpected legacy response %q", legacy.Body.String())
	}
	duplicate := server.do(test, http.MethodPost, "/add_booking", map[string]any{"bilty_no": "1001", "sender_name": "X", "receiver_name": "Y"})
	expectStatus(test, duplicate, http.StatusBadRequest)
	if !strings.HasPrefix(duplicate.Body.String(), "Error: ") {
		test.Fatalf("expected text error, got %q", duplicate.Body.String())
	}
	expectStatus(test, server.do(test, http.MethodPost, "/add_booking", map[string]any{"sender_name": "X"}), http.StatusBadRequest)

	created := server.do(test, http.MethodPost, "/api/booking", map[string]any{
		"sender":     "Gupta Cement",
		"receiver":   "BuildCo",
		"vehicle_no": "RJ14 GA 1234",
		"weight":     "950.5",
		"quantity":   40,
		"price":      18000,
		"pickup":     "Jaipur",
		"drop":       "Ajmer",
		"date":       "2026-01-15",
	})
	expectStatus(test, created, http.StatusCreated)
	createdBody := decodeBody[map[string]any](test, created)
	if createdBody["status"] != statusSuccess || createdBody["bilty_no"] != float64(1002) {
		test.Fatalf("unexpected booking response %+v", createdBody)
	}

	fetched := server.do(test, http.MethodGet, "/get_booking/1002", nil)
	expectStatus(test, fetched, http.StatusOK)
	booking := decodeBody[bookingPayload](test, fetched)
	if booking.Sender != "Gupta Cement" || booking.Weight != 950.5 || booking.Quantity != 40 || booking.Drop != "Ajmer" || booking.Date != "2026-01-15" {
		test.Fatalf("unexpected booking %+v", booking)
	}

	missing := server.do(test, http.MethodGet, "/get_booking/9999", nil)
	expectStatus(test, missing, http.StatusNotFound)
	if decodeBody[errorEnvelope](test, missing).Error != messageBookingNotFound {
		test.Fatalf("unexpected not found body %s", missing.Body.String())
	}
	for _, unknownKey := range []string{"abc", "0", "-5"} {
		unknown := server.do(test, http.MethodGet, "/get_booking/"+unknownKey, nil)
		expectStatus(test, unknown, http.StatusNotFound)
		if decodeBody[errorEnvelope](test, unknown).Error != messageBookingNotFound {
			test.Fatalf("unexpected body for key %q: %s", unknownKey, unknown.Body.String())
		}
	}

	bookings := decodeBody[[]bookingPayload](test, server.do(test, http.MethodGet, "/api/bookings", nil))
	if len(bookings) != 2 || bookings[0].BiltyNo != 1002 || bookings[1].BiltyNo != 1001 {
		test.Fatalf("expected bookings newest first, got %+v", bookings)
	}

	godown := decodeBody[[]godownPayload](test, server.do(test, http.MethodGet, "/api/godown", nil))
	if len(godown) != len(bookings) {
		test.Fatalf("expected %d godown rows, got %d", len(bookings), len(godown))
	}
	for _, row := range godown {
		if row.QtyOut != 0 || row.Item != "General Goods" {
			test.Fatalf("unexpected godown row %+v", row)
		}
	}
	if godown[0].Bilty != 1002 || godown[0].Party != "Gupta Cement" || godown[0].QtyIn != 40 {
		test.Fatalf("unexpected godown row %+v", godown[0])
	}

	parties := decodeBody[[]partyPayload](test, server.do(test, http.MethodGet, "/api/parties", nil))
	if len(parties) != 0 {
		test.Fatalf("bookings must not create parties, got %+v", parties)
	}
}

func TestBookingValidation(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})

	testCases := []struct {
		name    string
		payload map[string]any
	}{
		{name: "missing sender", payload: map[string]any{"receiver": "B"}},
		{name: "missing receiver", payload: map[string]any{"sender": "A"}},
		{name: "negative weight", payload: map[string]any{"sender": "A", "receiver": "B", "weight": -1}},
		{name: "negative quantity", payload: map[string]any{"sender": "A", "receiver": "B", "quantity": -3}},
		{name: "negative bilty", payload: map[string]any{"sender": "A", "receiver": "B", "bilty_no": -3}},
		{name: "weight beyond storage range", payload: map[string]any{"sender": "A", "receiver": "B", "weight": "1e400"}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			recorder := server.do(test, http.MethodPost, "/api/booking", testCase.payload)
			expectStatus(test, recorder, http.StatusBadRequest)
			if code := decodeBody[errorEnvelope](test, recorder).Code; code != errorCodeInvalidRequest {
				test.Fatalf("expected %s, got %s", errorCodeInvalidRequest, code)
			}
		})
	}
	if bookings := decodeBody[[]bookingPayload](test, server.do(test, http.MethodGet, "/api/bookings", nil)); len(bookings) != 0 {
		test.Fatalf("expected no bookings, got %d", len(bookings))
	}
}

func TestHealthMetricsAndRequestID(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})

	health := server.do(test, http.MethodGet, "/healthz", nil)
	expectStatus(test, health, http.StatusOK)
	if health.Header().Get(requestIDHeader) == "" {
		test.Fatalf("expected generated request id header")
	}

	request := httptest.NewRequest(http.MethodGet, "/api/godown", nil)
	request.Header.Set(requestIDHeader, "req-123")
	recorder := httptest.NewRecorder()
	server.router.ServeHTTP(recorder, request)
	expectStatus(test, recorder, http.StatusOK)
	if recorder.Header().Get(requestIDHeader) != "req-123" {
		test.Fatalf("expected request id to be echoed, got %q", recorder.Header().Get(requestIDHeader))
	}

	metrics := server.do(test, http.MethodGet, "/metrics", nil)
	expectStatus(test, metrics, http.StatusOK)
	if !strings.Contains(metrics.Body.String(), `cargo_http_requests_total{method="GET",route="/api/godown",status="200"} 1`) {
		test.Fatalf("expected godown request counter in metrics output")
	}
}

func TestHealthReportsStoreFailure(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{})
	sqlDB, err := server.database.DB()
	if err != nil {
		test.Fatalf("sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		test.Fatalf("close: %v", err)
	}
	recorder := server.do(test, http.MethodGet, "/healthz", nil)
	expectStatus(test, recorder, http.StatusServiceUnavailable)
	if decodeBody[errorEnvelope](test, recorder).Code != errorCodeStoreUnavailable {
		test.Fatalf("unexpected body %s", recorder.Body.String())
	}
	listing := server.do(test, http.MethodGet, "/api/invoices", nil)
	expectStatus(test, listing, http.StatusInternalServerError)
	if decodeBody[errorEnvelope](test, listing).Code != errorCodeInternal {
		test.Fatalf("unexpected body %s", listing.Body.String())
	}
}

func TestSessionRequiredWhenSigningKeyConfigured(test *testing.T) {
	test.Parallel()
	server := newTestServer(test, Config{SessionSigningKey: testSigningKey})

	expectStatus(test, server.do(test, http.MethodGet, "/healthz", nil), http.StatusOK)
	expectStatus(test, server.do(test, http.MethodGet, "/api/bookings", nil), http.StatusUnauthorized)
	expectStatus(test, server.do(test, http.MethodPost, "/api/invoice", map[string]any{"party_name": "Acme", "amount": 1}), http.StatusUnauthorized)

	cookie := buildSessionCookie(test, server.cfg)
	expectStatus(test, server.do(test, http.MethodGet, "/api/bookings", nil, cookie), http.StatusOK)
	expectStatus(test, server.do(test, http.MethodPost, "/api/invoice", map[string]any{"party_name": "Acme", "amount": 1}, cookie), http.StatusCreated)
}

func buildSessionCookie(test *testing.T, cfg Config) *http.Cookie {
	test.Helper()
	claims := &sessionvalidator.Claims{
		UserID:          "clerk-1",
		UserEmail:       "clerk@example.com",
		UserDisplayName: "Clerk",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultSessionIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SessionSigningKey))
	if err != nil {
		test.Fatalf("token signing failed: %v", err)
	}
	return &http.Cookie{Name: defaultSessionCookie, Value: signed}
}
