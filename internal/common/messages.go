package common

import "fmt"

// User-facing messages produced by the client core. They are shown verbatim
// by the presentation layer.
const (
	MsgInvalidResponse = "Invalid server response. Please try again."
	MsgNetworkError    = "Network error. Please try again."
	MsgSessionExpired  = "Session expired"
	MsgUnknownAction   = "Unknown action"
	MsgRequestFailed   = "Request failed"

	MsgFillAllFields       = "Please fill in all fields"
	MsgInvalidEmail        = "Please enter a valid email"
	MsgUsernameTooShort    = "Username must be at least 3 characters"
	MsgPasswordsMismatch   = "Passwords do not match"
	MsgNewPasswordMismatch = "New passwords do not match"
	MsgIncompleteOTP       = "Please enter the complete OTP"

	MsgRegistrationFailed   = "Registration failed"
	MsgInvalidOTP           = "Invalid OTP"
	MsgResendFailed         = "Failed to resend OTP"
	MsgEmailNotFound        = "Email not found"
	MsgResetFailed          = "Reset failed"
	MsgChangePasswordFailed = "Failed to change password"
	MsgInvalidCredentials   = "Invalid credentials"

	MsgDescriptionTooLong = "Description is too long"
	MsgUploadFailed       = "Upload failed"

	MsgLoginToPurchase = "Please login to purchase coupons"
	MsgPurchaseFailed  = "Purchase failed"
	MsgAdminOnly       = "Admin access required"
)

// PasswordTooShort returns the message shown when a password is shorter
// than min characters.
func PasswordTooShort(min int) string {
	return fmt.Sprintf("Password must be at least %d characters", min)
}

// InsufficientCoins returns the message shown when the balance cannot cover price.
func InsufficientCoins(price int64) string {
	return fmt.Sprintf("Insufficient coins! You need %d coins.", price)
}
