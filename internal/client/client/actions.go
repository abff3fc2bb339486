package client

// Action names a backend operation.
type Action string

// Auth.
const (
	ActionRegister       Action = "register"
	ActionVerifyOTP      Action = "verifyOTP"
	ActionResendOTP      Action = "resendOTP"
	ActionLogin          Action = "login"
	ActionForgotPassword Action = "forgotPassword"
	ActionResetPassword  Action = "resetPassword"
	ActionChangePassword Action = "changePassword"
)

// Marketplace.
const (
	ActionGetCoupons      Action = "getCoupons"
	ActionUploadCoupon    Action = "uploadCoupon"
	ActionBuyCoupon       Action = "buyCoupon"
	ActionGetMyCoupons    Action = "getMyCoupons"
	ActionGetMyVault      Action = "getMyVault"
	ActionGetWallet       Action = "getWallet"
	ActionGetReferralInfo Action = "getReferralInfo"
	ActionGetCategories   Action = "getCategories"
)

// Admin.
const (
	ActionAdminGetStats          Action = "adminGetStats"
	ActionAdminGetPendingCoupons Action = "adminGetPendingCoupons"
	ActionAdminVerifyCoupon      Action = "adminVerifyCoupon"
	ActionAdminGetAllCoupons     Action = "adminGetAllCoupons"
	ActionAdminManageCategory    Action = "adminManageCategory"
	ActionAdminGetUsers          Action = "adminGetUsers"
	ActionAdminManageUser        Action = "adminManageUser"
	ActionAdminAdjustCoins       Action = "adminAdjustCoins"
	ActionAdminGetTransactions   Action = "adminGetTransactions"
)

var knownActions = map[Action]struct{}{
	ActionRegister:       {},
	ActionVerifyOTP:      {},
	ActionResendOTP:      {},
	ActionLogin:          {},
	ActionForgotPassword: {},
	ActionResetPassword:  {},
	ActionChangePassword: {},

	ActionGetCoupons:      {},
	ActionUploadCoupon:    {},
	ActionBuyCoupon:       {},
	ActionGetMyCoupons:    {},
	ActionGetMyVault:      {},
	ActionGetWallet:       {},
	ActionGetReferralInfo: {},
	ActionGetCategories:   {},

	ActionAdminGetStats:          {},
	ActionAdminGetPendingCoupons: {},
	ActionAdminVerifyCoupon:      {},
	ActionAdminGetAllCoupons:     {},
	ActionAdminManageCategory:    {},
	ActionAdminGetUsers:          {},
	ActionAdminManageUser:        {},
	ActionAdminAdjustCoins:       {},
	ActionAdminGetTransactions:   {},
}

// Valid reports whether a is part of the vocabulary shared with the backend.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}
