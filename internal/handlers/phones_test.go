package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/zapi"
)

var errUpstream = errors.New("presence provider unavailable")

func phonesRouter() *gin.Engine {
	return newRouter(func(r *gin.Engine) {
		r.POST("/phones/validate", authStub, ValidatePhones)
	})
}

func expectPhoneRow(mock sqlmock.Sqlmock, phoneID, phone string) {
	mock.ExpectQuery("SELECT phone FROM lead_phones").
		WithArgs(phoneID, testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"phone"}).AddRow(phone))
}

func expectPhoneUpdate(mock sqlmock.Sqlmock, status, name, phoneID string) {
	mock.ExpectExec("UPDATE lead_phones").
		WithArgs(status, name, phoneID, testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestValidatePhonesBatch(t *testing.T) {
	mock := setupTest(t)
	phoneChecker = &fakePhoneChecker{results: map[string]*zapi.PresenceResult{
		"5581999990001": {Exists: true, Name: "Padaria Central"},
		"5581999990002": {Exists: false},
	}}

	expectPhoneRow(mock, "ph-1", "(81) 99999-0001")
	expectPhoneUpdate(mock, "valid", "Padaria Central", "ph-1")
	expectPhoneRow(mock, "ph-2", "(81) 99999-0002")
	expectPhoneUpdate(mock, "invalid", "", "ph-2")
	expectPhoneRow(mock, "ph-3", "123")
	expectPhoneUpdate(mock, "invalid", "", "ph-3")

	body := []byte(`{"phoneIds":["ph-1","ph-2","ph-3"]}`)
	w := performJSON(phonesRouter(), http.MethodPost, "/phones/validate", body, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Results []struct {
			ID           string `json:"id"`
			Status       string `json:"status"`
			WhatsappName string `json:"whatsappName"`
		} `json:"results"`
		Summary struct {
			Total     int `json:"total"`
			Valid     int `json:"valid"`
			Invalid   int `json:"invalid"`
			Uncertain int `json:"uncertain"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Summary.Total != 3 || resp.Summary.Valid != 1 || resp.Summary.Invalid != 2 {
		t.Errorf("unexpected summary: %+v", resp.Summary)
	}
	if resp.Results[0].WhatsappName != "Padaria Central" {
		t.Errorf("expected presence name, got %q", resp.Results[0].WhatsappName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidatePhonesCheckFailureIsUncertain(t *testing.T) {
	mock := setupTest(t)
	phoneChecker = &fakePhoneChecker{err: errUpstream}

	expectPhoneRow(mock, "ph-1", "81999990001")
	expectPhoneUpdate(mock, "uncertain", "", "ph-1")

	w := performJSON(phonesRouter(), http.MethodPost, "/phones/validate", []byte(`{"phoneIds":["ph-1"]}`), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Summary struct {
			Uncertain int `json:"uncertain"`
		} `json:"summary"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Summary.Uncertain != 1 {
		t.Errorf("expected one uncertain result, got %+v", resp.Summary)
	}
}

// abortingChecker cancels the request context on its first call, the
// way a client closing the connection mid-batch would.
type abortingChecker struct {
	cancel context.CancelFunc
	calls  int
}

func (a *abortingChecker) CheckPhone(ctx context.Context, phone string) (*zapi.PresenceResult, error) {
	a.calls++
	a.cancel()
	return &zapi.PresenceResult{Exists: true, Name: "Padaria Central"}, nil
}

func TestValidatePhonesStopsWhenClientAborts(t *testing.T) {
	mock := setupTest(t)
	phoneCheckDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	checker := &abortingChecker{cancel: cancel}
	phoneChecker = checker

	expectPhoneRow(mock, "ph-1", "81999990001")

	req := httptest.NewRequest(http.MethodPost, "/phones/validate",
		bytes.NewReader([]byte(`{"phoneIds":["ph-1","ph-2"]}`)))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	router := phonesRouter()
	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler kept waiting after the client went away")
	}

	if checker.calls != 1 {
		t.Errorf("expected the batch to stop after one check, got %d", checker.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidatePhonesRejectsEmptyBatch(t *testing.T) {
	setupTest(t)

	w := performJSON(phonesRouter(), http.MethodPost, "/phones/validate", []byte(`{"phoneIds":[]}`), nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
