package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	errs "docvault/internal/pkg/errors"
	"docvault/internal/platform/audit"
	"docvault/internal/platform/models"
	"docvault/internal/platform/repositories"
)

// Service maps provider events onto BillingState transitions. Apply is
// idempotent under event redelivery: an event whose target state already
// holds changes nothing and writes no audit record.
type Service struct {
	orgs *repositories.OrganizationRepository
	sink *audit.Sink
}

func NewService(orgs *repositories.OrganizationRepository, sink *audit.Sink) *Service {
	return &Service{orgs: orgs, sink: sink}
}

func (s *Service) Apply(ctx context.Context, evt *Event) error {
	org, err := s.orgs.GetByBillingRef(evt.CustomerRef)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}
	if org == nil {
		// Event for a customer we never issued. Acknowledge and move on so
		// the provider stops redelivering.
		log.Warn().Str("customer", evt.CustomerRef).Str("type", evt.Type).Msg("billing event for unknown customer")
		return nil
	}

	var status, action string
	var metadata map[string]interface{}

	switch evt.Type {
	case EventInvoicePaid:
		status = models.BillingActive
		action = "billing.invoice.paid"
		metadata = map[string]interface{}{"invoice_id": evt.InvoiceID, "amount": evt.AmountPaid}
	case EventInvoicePaymentFailed:
		status = models.BillingPastDue
		action = "billing.invoice.payment_failed"
		metadata = map[string]interface{}{"invoice_id": evt.InvoiceID}
	case EventSubscriptionUpdated:
		if evt.Status == "active" {
			status = models.BillingActive
		} else {
			status = models.BillingCanceled
		}
		action = "billing.subscription.updated"
		metadata = map[string]interface{}{"subscription_id": evt.SubscriptionID, "provider_status": evt.Status}
	case EventSubscriptionDeleted:
		status = models.BillingCanceled
		action = "billing.subscription.deleted"
		metadata = map[string]interface{}{"subscription_id": evt.SubscriptionID}
	default:
		log.Debug().Str("type", evt.Type).Msg("unhandled billing event type")
		return nil
	}

	if org.BillingStatus == status {
		return nil
	}

	if err := s.orgs.UpdateBilling(org.ID, status, org.Plan); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDependency, err)
	}

	_, err = s.sink.Record(ctx, org.ID, audit.SystemActor, action, "organization", org.ID, metadata)
	return err
}
