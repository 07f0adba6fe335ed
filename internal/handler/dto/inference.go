package dto

// PredictionRequest represents the request body for POST /prediction.
type PredictionRequest struct {
	Text *string `json:"text" validate:"required"`
}
