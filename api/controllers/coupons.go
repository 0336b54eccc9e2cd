package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	"github.com/angelmondragon/canteen-coupons/api/validators"
	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
	"github.com/angelmondragon/canteen-coupons/pkg/qrcode"
)

type EmployeeBatchRequest struct {
	EmployeeID int64  `json:"employeeId" validate:"required,gt=0"`
	CouponType string `json:"couponType" validate:"required,coupontype"`
}

type ContractorBatchRequest struct {
	ContractorID int64  `json:"contractorId" validate:"required,gt=0"`
	CouponType   string `json:"couponType" validate:"required,coupontype"`
	Quantity     int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type RedeemRequest struct {
	Code string `json:"code" validate:"required,redemptioncode"`
}

func IssueEmployeeBatch(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmployeeBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.IssueEmployeeBatch(r.Context(), req.EmployeeID, enums.CouponType(req.CouponType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusCreated, result)
	}
}

func IssueContractorBatch(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ContractorBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.IssueContractorBatch(r.Context(), req.ContractorID, enums.CouponType(req.CouponType), req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusCreated, result)
	}
}

func RedeemCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RedeemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RedeemByCode(r.Context(), strings.TrimSpace(req.Code))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, result)
	}
}

func DeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID := strings.TrimSpace(chi.URLParam(r, "couponID"))
		if couponID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "coupon id required"))
			return
		}
		result, err := svc.RemoveCoupon(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, result)
	}
}

func RemoveLastBatch(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "employeeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RemoveLastBatch(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, result)
	}
}

// ListCoupons supports employeeId, contractorId, status, type and guest filters.
func ListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := couponFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func couponFilterFromQuery(r *http.Request) (coupons.ListFilter, error) {
	q := r.URL.Query()
	var filter coupons.ListFilter

	parseID := func(key string) (*int64, error) {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil, nil
		}
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key).WithDetails(map[string]any{"field": key})
		}
		return &value, nil
	}

	var err error
	if filter.EmployeeID, err = parseID("employeeId"); err != nil {
		return filter, err
	}
	if filter.ContractorID, err = parseID("contractorId"); err != nil {
		return filter, err
	}
	if status := strings.TrimSpace(q.Get("status")); status != "" {
		filter.Status = enums.CouponStatus(status)
		if !filter.Status.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
	}
	if couponType := strings.TrimSpace(q.Get("type")); couponType != "" {
		filter.CouponType = enums.CouponType(couponType)
		if !filter.CouponType.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
		}
	}
	if filter.GuestOnly, err = validators.ParseQueryBool(r, "guest"); err != nil {
		return filter, err
	}
	return filter, nil
}

// CouponQRCode renders a coupon's redemption code. Only the owning employee,
// the sharing employee, the owning contractor or an admin may fetch it.
func CouponQRCode(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID := strings.TrimSpace(chi.URLParam(r, "couponID"))
		size, err := validators.ParseQueryInt(r, "size", qrcode.DefaultSize, 64, 1024)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Get(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !canViewCoupon(pkgAuth.PrincipalFromContext(r.Context()), coupon) {
			// Same answer as a missing coupon so ids cannot be probed.
			responses.WriteError(r.Context(), logg, w, pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "Coupon not found."))
			return
		}

		png, err := svc.QRCode(r.Context(), couponID, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

func canViewCoupon(p pkgAuth.Principal, c *coupons.CouponDTO) bool {
	switch p.Kind {
	case enums.PrincipalKindEmployee:
		if p.IsAdmin() {
			return true
		}
		id := p.AccountID()
		return (c.EmployeeID != nil && *c.EmployeeID == id) ||
			(c.SharedByEmployeeID != nil && *c.SharedByEmployeeID == id)
	case enums.PrincipalKindContractor:
		return c.ContractorID != nil && *c.ContractorID == p.AccountID()
	default:
		return false
	}
}

// GuestPassRequest asks for one guest coupon of the given type.
type GuestPassRequest struct {
	CouponType string `json:"couponType" validate:"required,coupontype"`
}

func GenerateGuestPass(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuestPassRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		principal := pkgAuth.PrincipalFromContext(r.Context())
		pass, err := svc.GenerateGuestPass(r.Context(), principal.AccountID(), enums.CouponType(req.CouponType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pass.Success = true
		responses.WriteSuccessStatus(w, http.StatusCreated, pass)
	}
}
