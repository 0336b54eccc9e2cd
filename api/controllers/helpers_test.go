package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

func withParams(req *http.Request, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func asEmployee(req *http.Request, id int64, role enums.EmployeeRole) *http.Request {
	emp := &models.Employee{ID: id, EmployeeID: "emp", Name: "Test", Role: role, Status: enums.EmployeeStatusActive}
	return req.WithContext(pkgAuth.WithPrincipal(req.Context(), pkgAuth.EmployeePrincipal(emp, "sess")))
}

func asContractor(req *http.Request, id int64, business string) *http.Request {
	c := &models.Contractor{ID: id, ContractorID: "ctr", BusinessName: business}
	return req.WithContext(pkgAuth.WithPrincipal(req.Context(), pkgAuth.ContractorPrincipal(c, "sess")))
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return env
}
