package httpadapter

import (
	"context"
	"log/slog"

	"crewdeck/contexts/identity-access/authentication-service/application"
	"crewdeck/contexts/identity-access/authentication-service/domain/entities"
	httptransport "crewdeck/contexts/identity-access/authentication-service/transport/http"
)

// Handler maps HTTP DTOs to application use-cases.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterHandler(ctx context.Context, request httptransport.RegisterRequest) (httptransport.RegisterResponse, error) {
	user, err := h.Service.Register(ctx, application.RegisterInput{
		Email:    request.Email,
		Name:     request.Name,
		Password: request.Password,
	})
	if err != nil {
		return httptransport.RegisterResponse{}, err
	}
	return httptransport.RegisterResponse{
		UserID:    user.UserID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (h Handler) LoginHandler(ctx context.Context, request httptransport.LoginRequest) (httptransport.LoginResponse, error) {
	result, err := h.Service.Login(ctx, request.Email, request.Password)
	if err != nil {
		return httptransport.LoginResponse{}, err
	}
	return httptransport.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		UserID:    result.User.UserID,
		Email:     result.User.Email,
		Name:      result.User.Name,
	}, nil
}

// AuthenticateHandler resolves the acting identity from a bearer token.
func (h Handler) AuthenticateHandler(ctx context.Context, token string) (entities.Claims, error) {
	return h.Service.Authenticate(ctx, token)
}

func (h Handler) ProfileHandler(ctx context.Context, userID string) (httptransport.ProfileResponse, error) {
	user, err := h.Service.GetProfile(ctx, userID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return httptransport.ProfileResponse{
		UserID:    user.UserID,
		Email:     user.Email,
		Name:      user.Name,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (h Handler) ChangePasswordHandler(
	ctx context.Context,
	userID string,
	request httptransport.ChangePasswordRequest,
) (httptransport.ChangePasswordResponse, error) {
	if err := h.Service.ChangePassword(ctx, userID, request.CurrentPassword, request.NewPassword); err != nil {
		return httptransport.ChangePasswordResponse{}, err
	}
	return httptransport.ChangePasswordResponse{Status: "ok"}, nil
}
