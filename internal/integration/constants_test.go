package integration_test

const (
	TestUserId     = 1
	TestPoorUserId = 2
	TestOtherUser  = 3

	TestJWTSecret     = "integration-secret"
	TestWebhookSecret = "whsec_integration"

	TestReservationDate = "2095-06-10"
	TestTimeSlot        = "19:00"
)
