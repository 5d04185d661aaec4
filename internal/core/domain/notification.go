package domain

// NotificationKind selects the template a notification sender renders.
type NotificationKind string

const (
	NotificationLoginOTP           NotificationKind = "LOGIN_OTP"
	NotificationTransferOTP        NotificationKind = "TRANSFER_OTP"
	NotificationAccountLocked      NotificationKind = "ACCOUNT_LOCKED"
	NotificationAccountActivated   NotificationKind = "ACCOUNT_ACTIVATED"
	NotificationDeposit            NotificationKind = "DEPOSIT"
	NotificationWithdrawal         NotificationKind = "WITHDRAWAL"
	NotificationTransferSent       NotificationKind = "TRANSFER_SENT"
	NotificationTransferReceived   NotificationKind = "TRANSFER_RECEIVED"
	NotificationCardTopUp          NotificationKind = "CARD_TOP_UP"
	NotificationInterestApplied    NotificationKind = "INTEREST_APPLIED"
	NotificationStagedStep         NotificationKind = "STAGED_STEP"
	NotificationSuspiciousActivity NotificationKind = "SUSPICIOUS_ACTIVITY"
)
