package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"verifly/internal/model"
)

const maxBodyBytes = 1 << 20

const (
	detailUnauthorized       = "unauthorized"
	detailInvalidCredentials = "Incorrect email or password"
	detailEmailRegistered    = "Email already registered"
	detailInvalidEmail       = "Invalid email address"
	detailWeakPassword       = "Password length is out of range"
	detailInactive           = "Inactive account"
	detailInvalidJSON        = "invalid json"
	detailInternal           = "internal server error"
)

func (handler *AuthenticationHandler) decodeCredentials(writer http.ResponseWriter, request *http.Request) (*model.Credentials, bool) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)

	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()

	var credentials model.Credentials
	if err := decoder.Decode(&credentials); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(writer, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		handler.logger.Debug("неверный json")
		writeError(writer, http.StatusBadRequest, detailInvalidJSON)
		return nil, false
	}

	if strings.TrimSpace(credentials.Email) == "" || credentials.Password == "" {
		writeError(writer, http.StatusBadRequest, "email and password are required")
		return nil, false
	}

	return &credentials, true
}

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.Header().Set("Cache-Control", "no-store")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(body)
}

func writeError(writer http.ResponseWriter, status int, detail string) {
	writeJSON(writer, status, model.ErrorResponse{Detail: detail})
}
