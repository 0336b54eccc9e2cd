package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	"github.com/angelmondragon/canteen-coupons/api/validators"
	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
)

type contractorEmployees interface {
	ListByContractor(ctx context.Context, businessName string) ([]employees.EmployeeDTO, error)
}

type AssignRequest struct {
	EmployeeID int64  `json:"employeeId" validate:"required,gt=0"`
	CouponType string `json:"couponType" validate:"required,coupontype"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

// ContractorPool lists the caller's unassigned coupons per type.
func ContractorPool(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := pkgAuth.PrincipalFromContext(r.Context())
		pool, err := svc.ContractorPool(r.Context(), principal.AccountID())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pool)
	}
}

func ContractorAssign(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		principal := pkgAuth.PrincipalFromContext(r.Context())
		result, err := svc.AssignFromPool(r.Context(), principal.AccountID(), req.EmployeeID, enums.CouponType(req.CouponType), req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, result)
	}
}

// ContractorEmployees lists workers whose contractor field names the
// caller's business.
func ContractorEmployees(svc contractorEmployees, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := pkgAuth.PrincipalFromContext(r.Context())
		if principal.Contractor == nil {
			responses.WriteSuccess(w, []employees.EmployeeDTO{})
			return
		}
		list, err := svc.ListByContractor(r.Context(), principal.Contractor.BusinessName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
