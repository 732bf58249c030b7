package domain

import "time"

// Valid pricing plans. Pro is the default for both registration flows.
const (
	PlanSolo     = "solo"
	PlanStarter  = "starter"
	PlanPro      = "pro"
	PlanBusiness = "business"
	PlanScale    = "scale"
)

// Subscription lifecycle statuses as stored on the user.
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// User represents an account in the system. PasswordHash is empty for users
// created through an OAuth provider who never set a password.
type User struct {
	ID              string        `json:"id" db:"id"`
	Email           string        `json:"email" db:"email"`
	PasswordHash    string        `json:"-" db:"password_hash"`
	Name            string        `json:"name,omitempty" db:"name"`
	Plan            string        `json:"plan" db:"plan"`
	TrialEndsAt     time.Time     `json:"trial_ends_at" db:"trial_ends_at"`
	OAuthProvider   *string       `json:"oauth_provider,omitempty" db:"oauth_provider"`
	OAuthProviderID *string       `json:"-" db:"oauth_provider_id"`
	Subscription    *Subscription `json:"subscription,omitempty"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// Subscription mirrors the billing provider's view of the user.
type Subscription struct {
	Status           string     `json:"status" db:"subscription_status"`
	CustomerID       string     `json:"-" db:"stripe_customer_id"`
	SubscriptionID   string     `json:"-" db:"stripe_subscription_id"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty" db:"current_period_end"`
}

// AccessStatus is the computed entitlement view returned by /api/user/status.
type AccessStatus struct {
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	CanAccess   bool       `json:"canAccess"`
	TrialEndsAt time.Time  `json:"trialEndsAt"`
	DaysLeft    int        `json:"daysLeft"`
	PeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
}

// ValidPlan reports whether plan names a known pricing tier.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanSolo, PlanStarter, PlanPro, PlanBusiness, PlanScale:
		return true
	}
	return false
}

// Access computes the user's entitlement at the given instant. A user is
// entitled while the trial runs or while the subscription is active; a
// past_due subscription keeps access so a failed card does not lock the
// dashboard immediately.
func (u *User) Access(now time.Time) AccessStatus {
	st := AccessStatus{
		Plan:        u.Plan,
		TrialEndsAt: u.TrialEndsAt,
	}

	if u.Subscription != nil {
		st.PeriodEnd = u.Subscription.CurrentPeriodEnd
		switch u.Subscription.Status {
		case SubscriptionActive:
			st.Status = SubscriptionActive
			st.CanAccess = true
			return st
		case SubscriptionPastDue:
			st.Status = SubscriptionPastDue
			st.CanAccess = true
			return st
		case SubscriptionCanceled:
			st.Status = SubscriptionCanceled
			st.CanAccess = false
			return st
		}
	}

	if now.Before(u.TrialEndsAt) {
		st.Status = "trial"
		st.CanAccess = true
		st.DaysLeft = int(u.TrialEndsAt.Sub(now).Hours()/24) + 1
		return st
	}

	st.Status = "expired"
	return st
}
