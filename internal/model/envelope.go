package model

// Envelope wraps every HTTP response of the roster API.
type Envelope[T any] struct {
	Status     string      `json:"status,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       *T          `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	TotalData int `json:"total_data"`
	TotalPage int `json:"total_page"`
	Page      int `json:"page"`
	Limit     int `json:"limit"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginData struct {
	Token string `json:"token"`
}

type ProfileData struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type QueuedData struct {
	TotalQueued int `json:"total_queued"`
}

type ModifiedData struct {
	Modified int `json:"modified"`
}
