package dto

import "time"

type UpdateMeRequest struct {
	Email string `json:"email" validate:"required,email,max=120"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
