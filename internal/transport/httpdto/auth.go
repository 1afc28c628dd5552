package httpdto

type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
