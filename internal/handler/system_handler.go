package handler

import (
	"net/http"
	"verifly/internal/model"
)

type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
}

type SystemHandler struct {
	environment string
}

func NewSystemHandler(environment string) *SystemHandler {
	return &SystemHandler{environment: environment}
}

func (handler *SystemHandler) Root(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, model.MessageResponse{Message: "Verifly API is running!"})
}

func (handler *SystemHandler) Health(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, HealthResponse{Status: "healthy", Environment: handler.environment})
}
