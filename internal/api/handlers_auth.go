package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/careline/clinic-queue/internal/auth"
)

func setTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func registerAdminHandler(svc *auth.Service, tokenTTL time.Duration, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterAdminRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "name, email and password are required")
			return
		}

		center, token, err := svc.RegisterAdmin(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		setTokenCookie(w, token, tokenTTL, secureCookies)

		resp := AuthUserResponse{Message: "Registration successful"}
		resp.User.ID = center.ID
		resp.User.Name = center.Name
		writeJSON(w, http.StatusCreated, resp)
	}
}

func loginAdminHandler(svc *auth.Service, tokenTTL time.Duration, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginAdminRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "email and password are required")
			return
		}

		center, token, err := svc.LoginAdmin(r.Context(), req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		setTokenCookie(w, token, tokenTTL, secureCookies)

		resp := AuthUserResponse{Message: "Login successful"}
		resp.User.ID = center.ID
		resp.User.Name = center.Name
		writeJSON(w, http.StatusOK, resp)
	}
}

func otpRequestHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OTPRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Mobile == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "mobile number is required")
			return
		}

		if err := svc.RequestOTP(r.Context(), req.Mobile); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
	}
}

func otpVerifyHandler(svc *auth.Service, tokenTTL time.Duration, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OTPVerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Mobile == "" || req.OTP == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "mobile and otp are required")
			return
		}

		patient, token, err := svc.VerifyOTP(r.Context(), req.Mobile, req.OTP, req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		setTokenCookie(w, token, tokenTTL, secureCookies)

		resp := AuthUserResponse{Message: "Login successful"}
		resp.User.ID = patient.ID
		resp.User.Name = patient.Name
		resp.User.Mobile = patient.Mobile
		writeJSON(w, http.StatusOK, resp)
	}
}
