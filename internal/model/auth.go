package model

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ResponseApi struct {
	ApiMessage string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}
