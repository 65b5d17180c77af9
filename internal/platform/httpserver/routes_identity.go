package httpserver

import (
	"errors"
	"net/http"
	"strings"

	authnerrors "crewdeck/contexts/identity-access/authentication-service/domain/errors"
	authnhttp "crewdeck/contexts/identity-access/authentication-service/transport/http"
	authzerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "crewdeck/contexts/identity-access/authorization-service/transport/http"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authnhttp.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authentication.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authnhttp.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authentication.Handler.LoginHandler(r.Context(), req)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.authentication.Handler.ProfileHandler(r.Context(), claims.UserID)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req authnhttp.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authentication.Handler.ChangePasswordHandler(r.Context(), claims.UserID, req)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzCheck(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req authzhttp.CheckPermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := req.UserID
	if strings.TrimSpace(userID) == "" {
		userID = claims.UserID
	}
	resp, err := s.authorization.Handler.CheckPermissionHandler(r.Context(), userID, req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzCheckBatch(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req authzhttp.CheckBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := req.UserID
	if strings.TrimSpace(userID) == "" {
		userID = claims.UserID
	}
	resp, err := s.authorization.Handler.CheckBatchHandler(r.Context(), userID, req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzListUserRoles(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	resp, err := s.authorization.Handler.ListUserRolesHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzListPermissions(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	resp, err := s.authorization.Handler.ListPermissionsHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzGrantRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req authzhttp.GrantRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.GrantRoleHandler(
		r.Context(),
		r.PathValue("user_id"),
		claims.UserID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzRevokeRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req authzhttp.RevokeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.RevokeRoleHandler(
		r.Context(),
		r.PathValue("user_id"),
		claims.UserID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzGrantPermission(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req authzhttp.GrantPermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.GrantPermissionHandler(
		r.Context(),
		r.PathValue("user_id"),
		claims.UserID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzRevokePermission(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req authzhttp.RevokePermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.RevokePermissionHandler(
		r.Context(),
		r.PathValue("user_id"),
		claims.UserID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAuthDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authnerrors.ErrInvalidRequest),
		errors.Is(err, authnerrors.ErrInvalidEmail),
		errors.Is(err, authnerrors.ErrPasswordTooShort),
		errors.Is(err, authnerrors.ErrPasswordTooLong):
		writeAuthError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authnerrors.ErrEmailTaken):
		writeAuthError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, authnerrors.ErrInvalidCredentials),
		errors.Is(err, authnerrors.ErrInvalidToken):
		writeAuthError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, authnerrors.ErrUserNotFound):
		writeAuthError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, authnerrors.ErrUserDeactivated):
		writeAuthError(w, http.StatusForbidden, "user_deactivated", err.Error())
	default:
		writeAuthError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuthzDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrInvalidPermission),
		errors.Is(err, authzerrors.ErrInvalidUserID),
		errors.Is(err, authzerrors.ErrInvalidRoleID),
		errors.Is(err, authzerrors.ErrInvalidAdminID),
		errors.Is(err, authzerrors.ErrIdempotencyKeyRequired):
		writeAuthzError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authzerrors.ErrRoleNotFound),
		errors.Is(err, authzerrors.ErrUserNotFound):
		writeAuthzError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, authzerrors.ErrRoleAlreadyAssigned),
		errors.Is(err, authzerrors.ErrRoleNotAssigned),
		errors.Is(err, authzerrors.ErrPermissionAlreadyGranted),
		errors.Is(err, authzerrors.ErrPermissionNotGranted),
		errors.Is(err, authzerrors.ErrIdempotencyConflict):
		writeAuthzError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, authzerrors.ErrForbidden):
		writeAuthzError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeAuthzError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authnhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeAuthzError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
