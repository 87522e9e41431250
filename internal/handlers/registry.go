package handlers

// AppHandlers holds every handler of the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	VerificationHandler *VerificationHandler
	AdminKycHandler     *AdminKycHandler
	NotificationHandler *NotificationHandler
}
