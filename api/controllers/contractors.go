package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	"github.com/angelmondragon/canteen-coupons/api/validators"
	"github.com/angelmondragon/canteen-coupons/internal/contractors"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

type contractorRegistry interface {
	Create(ctx context.Context, input contractors.Input) (*contractors.ContractorDTO, error)
	Update(ctx context.Context, id int64, input contractors.Input) (*contractors.ContractorDTO, error)
	Get(ctx context.Context, id int64) (*contractors.ContractorDTO, error)
	List(ctx context.Context) ([]contractors.ContractorDTO, error)
	BusinessNames(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id int64) (types.Result, error)
}

type ContractorRequest struct {
	ContractorID string `json:"contractorId" validate:"required,max=64"`
	BusinessName string `json:"businessName" validate:"required,max=128"`
	Password     string `json:"password" validate:"omitempty,min=4"`
}

func (req ContractorRequest) input() contractors.Input {
	return contractors.Input{
		ContractorID: validators.SanitizeString(req.ContractorID, 64),
		BusinessName: validators.SanitizeString(req.BusinessName, 128),
		Password:     req.Password,
	}
}

func ListContractors(svc contractorRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ContractorBusinessNames feeds the employee form's contractor picker.
func ContractorBusinessNames(svc contractorRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := svc.BusinessNames(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, names)
	}
}

func GetContractor(svc contractorRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "contractorID")
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

func CreateContractor(svc contractorRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ContractorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), req.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func UpdateContractor(svc contractorRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "contractorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req ContractorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, req.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DeleteContractor(svc contractorRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "contractorID")
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
