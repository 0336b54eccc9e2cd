package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	"github.com/angelmondragon/canteen-coupons/api/validators"
	"github.com/angelmondragon/canteen-coupons/internal/auth"
	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

type authService interface {
	Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	Logout(ctx context.Context, principal pkgAuth.Principal) error
	Me(ctx context.Context, principal pkgAuth.Principal) (*auth.AccountView, error)
	ChangePassword(ctx context.Context, principal pkgAuth.Principal, req auth.ChangePasswordRequest) (types.Result, error)
}

// AuthLogin exchanges a login id and password for an access token.
func AuthLogin(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.LoginID = validators.SanitizeString(req.LoginID, 64)

		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Access-Token", resp.AccessToken)
		responses.WriteSuccess(w, resp)
	}
}

func AuthLogout(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := pkgAuth.PrincipalFromContext(r.Context())
		if err := svc.Logout(r.Context(), principal); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, types.OK("Logged out."))
	}
}

func AuthMe(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Me(r.Context(), pkgAuth.PrincipalFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func AuthChangePassword(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ChangePassword(r.Context(), pkgAuth.PrincipalFromContext(r.Context()), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, result)
	}
}
