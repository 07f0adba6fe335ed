package model

// MessageEvent is a chat message relayed between WebSocket clients.
type MessageEvent struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Box is a detected region as [x, y, width, height].
type Box [4]int

// Faces is the face-detection result for a single image.
type Faces struct {
	Faces []Box `json:"faces"`
}

// Prediction is a classifier result.
type Prediction struct {
	Category string `json:"category"`
}
