package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/ztas-io/analytics-api/internal/config"
	"github.com/ztas-io/analytics-api/internal/domain"
	"github.com/ztas-io/analytics-api/internal/repository"
	"go.uber.org/zap"
)

type billingService struct {
	users         repository.UserRepository
	webhookSecret string
	priceID       string
	frontendURL   string
	logger        *zap.Logger
}

// NewBillingService creates a new billing service and sets the Stripe API
// key for the process.
func NewBillingService(users repository.UserRepository, cfg config.StripeConfig, logger *zap.Logger) BillingService {
	stripe.Key = cfg.SecretKey

	return &billingService{
		users:         users,
		webhookSecret: cfg.WebhookSecret,
		priceID:       cfg.PriceID,
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
		logger:        logger,
	}
}

// ensureCustomer finds or creates the Stripe customer attached to a user.
func (s *billingService) ensureCustomer(ctx context.Context, user *domain.User) (string, error) {
	if user.Subscription != nil && user.Subscription.CustomerID != "" {
		return user.Subscription.CustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Metadata: map[string]string{
			"user_id": user.ID,
			"plan":    user.Plan,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	sub := &domain.Subscription{CustomerID: cust.ID}
	if user.Subscription != nil {
		sub.Status = user.Subscription.Status
		sub.SubscriptionID = user.Subscription.SubscriptionID
		sub.CurrentPeriodEnd = user.Subscription.CurrentPeriodEnd
	}
	if err := s.users.UpdateSubscription(ctx, user.ID, sub); err != nil {
		return "", fmt.Errorf("failed to store stripe customer id: %w", err)
	}

	return cust.ID, nil
}

// Checkout creates a subscription checkout session and returns its URL.
func (s *billingService) Checkout(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.Subscription != nil && user.Subscription.Status == domain.SubscriptionActive {
		return "", ErrAlreadySubscribed
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.frontendURL + "/dashboard/?billing=success"),
		CancelURL:  stripe.String(s.frontendURL + "/dashboard/?billing=cancel"),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess.URL, nil
}

// Portal creates a customer portal session for managing the subscription.
func (s *billingService) Portal(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.Subscription == nil || user.Subscription.CustomerID == "" {
		return "", ErrNoSubscription
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.Subscription.CustomerID),
		ReturnURL: stripe.String(s.frontendURL + "/dashboard/"),
	}
	params.Context = ctx

	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return sess.URL, nil
}

// subscriptionStatus maps a Stripe subscription status onto the three states
// the rest of the system understands.
func subscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return domain.SubscriptionPastDue
	default:
		return domain.SubscriptionCanceled
	}
}

// HandleWebhook verifies the event signature and applies subscription state
// changes. Unknown event types are acknowledged and dropped.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("failed to unmarshal checkout session: %w", err)
		}
		return s.applyCheckout(ctx, &sess)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		return s.applySubscription(ctx, &sub, subscriptionStatus(sub.Status))

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		return s.applySubscription(ctx, &sub, domain.SubscriptionCanceled)

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("failed to unmarshal invoice: %w", err)
		}
		if inv.Customer == nil {
			return nil
		}
		return s.markPastDue(ctx, inv.Customer.ID)

	default:
		s.logger.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *billingService) applyCheckout(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Customer == nil {
		return fmt.Errorf("checkout session missing customer")
	}

	user, err := s.users.GetByStripeCustomerID(ctx, sess.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to find user for customer %s: %w", sess.Customer.ID, err)
	}

	sub := &domain.Subscription{
		Status:     domain.SubscriptionActive,
		CustomerID: sess.Customer.ID,
	}
	if sess.Subscription != nil {
		sub.SubscriptionID = sess.Subscription.ID
	}

	s.logger.Info("subscription activated",
		zap.String("user_id", user.ID),
		zap.String("customer_id", sess.Customer.ID))

	return s.users.UpdateSubscription(ctx, user.ID, sub)
}

func (s *billingService) applySubscription(ctx context.Context, stripeSub *stripe.Subscription, status string) error {
	if stripeSub.Customer == nil {
		return fmt.Errorf("subscription missing customer")
	}

	user, err := s.users.GetByStripeCustomerID(ctx, stripeSub.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to find user for customer %s: %w", stripeSub.Customer.ID, err)
	}

	sub := &domain.Subscription{
		Status:         status,
		CustomerID:     stripeSub.Customer.ID,
		SubscriptionID: stripeSub.ID,
	}
	if stripeSub.CurrentPeriodEnd > 0 {
		end := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &end
	}

	s.logger.Info("subscription updated",
		zap.String("user_id", user.ID),
		zap.String("status", status))

	return s.users.UpdateSubscription(ctx, user.ID, sub)
}

func (s *billingService) markPastDue(ctx context.Context, customerID string) error {
	user, err := s.users.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to find user for customer %s: %w", customerID, err)
	}

	sub := &domain.Subscription{
		Status:     domain.SubscriptionPastDue,
		CustomerID: customerID,
	}
	if user.Subscription != nil {
		sub.SubscriptionID = user.Subscription.SubscriptionID
		sub.CurrentPeriodEnd = user.Subscription.CurrentPeriodEnd
	}

	s.logger.Warn("payment failed, subscription past due",
		zap.String("user_id", user.ID))

	return s.users.UpdateSubscription(ctx, user.ID, sub)
}
