// Package users define los cuerpos de request/response de /users/.
package users

// CreateRequest es el body de POST /users/.
// re_password solo se exige con user_create_password_retype.
type CreateRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile,omitempty"`
	Password   string `json:"password"`
	RePassword string `json:"re_password,omitempty"`
}

// UserResponse son los campos públicos de un usuario. Nunca incluye password.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile,omitempty"`
}

// ActivationRequest es el body de POST /users/activation/.
type ActivationRequest struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

// EmailRequest es el body de los flujos que solo llevan email
// (resend_activation, reset_password, reset_username).
type EmailRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest es el body de POST /users/reset_password_confirm/.
type PasswordResetConfirmRequest struct {
	UID           string `json:"uid"`
	Token         string `json:"token"`
	NewPassword   string `json:"new_password"`
	ReNewPassword string `json:"re_new_password,omitempty"`
}

// SetPasswordRequest es el body de POST /users/set_password/.
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	ReNewPassword   string `json:"re_new_password,omitempty"`
	CurrentPassword string `json:"current_password"`
}

// SetUsernameRequest es el body de POST /users/set_username/.
type SetUsernameRequest struct {
	NewUsername     string `json:"new_username"`
	ReNewUsername   string `json:"re_new_username,omitempty"`
	CurrentPassword string `json:"current_password"`
}

// UsernameResetConfirmRequest es el body de POST /users/reset_username_confirm/.
type UsernameResetConfirmRequest struct {
	UID           string `json:"uid"`
	Token         string `json:"token"`
	NewUsername   string `json:"new_username"`
	ReNewUsername string `json:"re_new_username,omitempty"`
}

// UpdateRequest es el body de PUT/PATCH /users/{id}/ y /users/me/.
// Punteros nil = sin cambio.
type UpdateRequest struct {
	Email  *string `json:"email,omitempty"`
	Mobile *string `json:"mobile,omitempty"`
}

// DeleteRequest es el body de DELETE /users/{id}/ y /users/me/.
type DeleteRequest struct {
	CurrentPassword string `json:"current_password"`
}
