package service

import (
	"errors"
	"net/http"
)

// RequestError 带状态码的业务错误，Message 原样返回给客户端
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func badRequest(msg string) error {
	return &RequestError{Status: http.StatusBadRequest, Message: msg}
}

var (
	ErrNotFound           = &RequestError{Status: http.StatusNotFound, Message: "Not found"}
	ErrNotFoundOrNoChange = &RequestError{Status: http.StatusNotFound, Message: "Not found or no change"}
	ErrUnauthorized       = &RequestError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &RequestError{Status: http.StatusForbidden, Message: "Forbidden"}
	ErrAdminRequired      = &RequestError{Status: http.StatusForbidden, Message: "Forbidden - admin access required"}
	ErrBadRequest         = &RequestError{Status: http.StatusBadRequest, Message: "Bad request"}
	ErrNoFieldsToUpdate   = &RequestError{Status: http.StatusBadRequest, Message: "No fields to update"}
	ErrMemberIDRequired   = &RequestError{Status: http.StatusBadRequest, Message: "memberId required"}

	ErrInvalidCredentials = &RequestError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	ErrCredentialsMissing = &RequestError{Status: http.StatusBadRequest, Message: "Email and password required"}
	ErrNotConfigured      = &RequestError{Status: http.StatusServiceUnavailable, Message: "Database not configured"}

	ErrSetupCompleted    = &RequestError{Status: http.StatusConflict, Message: "Setup already completed. Use the login page."}
	ErrEmailExists       = &RequestError{Status: http.StatusConflict, Message: "A user with this email already exists"}
	ErrInvalidEmail      = &RequestError{Status: http.StatusBadRequest, Message: "Invalid email format"}
	ErrInvalidRole       = &RequestError{Status: http.StatusBadRequest, Message: "Invalid role. Must be admin, editor, or viewer"}
	ErrUserNotFound      = &RequestError{Status: http.StatusNotFound, Message: "User not found"}
	ErrCannotDemoteSelf  = &RequestError{Status: http.StatusBadRequest, Message: "Cannot demote yourself from admin role"}
	ErrCannotDisableSelf = &RequestError{Status: http.StatusBadRequest, Message: "Cannot deactivate your own account"}
	ErrCannotDeleteSelf  = &RequestError{Status: http.StatusBadRequest, Message: "Cannot delete your own account"}
)

// StatusOf 非 RequestError 一律按 500 处理
func StatusOf(err error) (int, string) {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status, re.Message
	}
	return http.StatusInternalServerError, err.Error()
}
