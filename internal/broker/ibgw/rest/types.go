package rest

import "tradelog/internal/models"

type gatewayResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

type sessionInfo struct {
	Connected   bool  `json:"connected"`
	NextValidID int64 `json:"nextValidId"`
}

type executionsResult struct {
	Fills             []models.Fill             `json:"fills"`
	CommissionReports []models.CommissionReport `json:"commissionReports"`
}
