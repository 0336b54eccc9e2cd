package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	"github.com/angelmondragon/canteen-coupons/api/validators"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

type employeeRegistry interface {
	Create(ctx context.Context, input employees.CreateInput) (*employees.EmployeeDTO, error)
	Update(ctx context.Context, id int64, input employees.UpdateInput) (*employees.EmployeeDTO, error)
	Get(ctx context.Context, id int64) (*employees.EmployeeDTO, error)
	List(ctx context.Context) ([]employees.EmployeeDTO, error)
	ToggleStatus(ctx context.Context, id int64) (*employees.EmployeeDTO, error)
	Delete(ctx context.Context, id int64) (types.Result, error)
}

// EmployeeRequest is the admin employee form. Password is required on create
// and optional on update.
type EmployeeRequest struct {
	EmployeeID string                `json:"employeeId" validate:"required,max=64"`
	Name       string                `json:"name" validate:"required,max=128"`
	Email      *string               `json:"email" validate:"omitempty,email"`
	Password   *string               `json:"password" validate:"omitempty,min=4"`
	Role       string                `json:"role" validate:"required,employeerole"`
	Department *string               `json:"department" validate:"omitempty,max=128"`
	Contractor *string               `json:"contractor" validate:"omitempty,max=128"`
	Status     *enums.EmployeeStatus `json:"status"`
}

func ListEmployees(svc employeeRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetEmployee(svc employeeRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "employeeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func CreateEmployee(svc employeeRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmployeeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := employees.CreateInput{
			EmployeeID: validators.SanitizeString(req.EmployeeID, 64),
			Name:       validators.SanitizeString(req.Name, 128),
			Email:      req.Email,
			Role:       enums.EmployeeRole(req.Role),
			Department: req.Department,
			Contractor: req.Contractor,
		}
		if req.Password != nil {
			input.Password = *req.Password
		}

		dto, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func UpdateEmployee(svc employeeRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "employeeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req EmployeeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), id, employees.UpdateInput{
			EmployeeID: validators.SanitizeString(req.EmployeeID, 64),
			Name:       validators.SanitizeString(req.Name, 128),
			Email:      req.Email,
			Password:   req.Password,
			Role:       enums.EmployeeRole(req.Role),
			Department: req.Department,
			Contractor: req.Contractor,
			Status:     req.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ToggleEmployeeStatus(svc employeeRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "employeeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.ToggleStatus(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DeleteEmployee(svc employeeRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "employeeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, result)
	}
}
