package domain

// Stage is a step of the checkout flow.
type Stage string

// Checkout stages in flow order.
const (
	StageReviewing    Stage = "reviewing"
	StageAwaitingAuth Stage = "awaiting_auth"
	StageSummary      Stage = "summary"
	StagePayment      Stage = "payment"
	StageConfirmed    Stage = "confirmed"
)

// FormMode selects which auth form is shown while awaiting sign-in.
type FormMode string

// Auth form modes.
const (
	FormSignup FormMode = "signup"
	FormLogin  FormMode = "login"
)

// Valid reports whether m is a known form mode.
func (m FormMode) Valid() bool {
	return m == FormSignup || m == FormLogin
}

// AuthState is whether the checkout has a signed-in customer.
type AuthState string

// Auth states.
const (
	AuthAnonymous     AuthState = "anonymous"
	AuthAuthenticated AuthState = "authenticated"
)
