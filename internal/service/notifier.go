package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"procurehub/internal/model"
	"procurehub/internal/repository"
)

// Notifier turns a (request, notification kind) pair into a persisted
// notification row plus a queued outbound email. Delivery itself happens in
// the outbox worker; a dispatched notification is advisory, not a guarantee.
type Notifier interface {
	Dispatch(ctx context.Context, req *model.Request, kind string) error
}

type notifier struct {
	notifications repository.NotificationRepository
	outbox        repository.OutboxRepository
	requests      repository.RequestRepository
	users         repository.UserRepository
	products      repository.ProductRepository
}

func NewNotifier(
	notifications repository.NotificationRepository,
	outbox repository.OutboxRepository,
	requests repository.RequestRepository,
	users repository.UserRepository,
	products repository.ProductRepository,
) Notifier {
	return &notifier{
		notifications: notifications,
		outbox:        outbox,
		requests:      requests,
		users:         users,
		products:      products,
	}
}

var notificationSubjects = map[string]string{
	model.NotifPaymentPending:   "Payment pending for your request",
	model.NotifPaymentConfirmed: "Payment confirmed — request approved",
	model.NotifFulfilled:        "Your request has been fulfilled",
	model.NotifShipped:          "Your order has shipped",
	model.NotifRejected:         "Your request was rejected",
	model.NotifUnavailable:      "A requested product is no longer available",
	model.NotifResolved:         "Your request has been resolved",
}

func (n *notifier) Dispatch(ctx context.Context, req *model.Request, kind string) error {
	product := req.Product
	if product == nil {
		loaded, err := n.products.FindByID(ctx, req.ProductID)
		if err != nil {
			return fmt.Errorf("load product for notification: %w", err)
		}
		product = loaded
	}

	customer := req.Customer
	if customer == nil {
		loaded, err := n.users.FindByID(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("load customer for notification: %w", err)
		}
		customer = loaded
	}

	meta, content := buildNotification(req, product, kind)
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal notification metadata: %w", err)
	}

	notification := model.Notification{
		UserID:        req.CustomerID,
		Type:          kind,
		Content:       content,
		ReferenceID:   req.ID,
		ReferenceType: model.RefTypeRequest,
		Metadata:      string(metaJSON),
	}
	if err := n.notifications.Create(ctx, &notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	subject, ok := notificationSubjects[kind]
	if !ok {
		subject = "Update on your request"
	}
	entry := model.EmailOutbox{
		Recipient:     customer.Email,
		Subject:       subject,
		TemplateName:  kind,
		Payload:       string(metaJSON),
		NextAttemptAt: time.Now(),
	}
	if err := n.outbox.Enqueue(ctx, &entry); err != nil {
		return fmt.Errorf("enqueue notification email: %w", err)
	}

	if err := n.requests.MarkNotified(ctx, req.ID, kind, time.Now()); err != nil {
		return fmt.Errorf("mark request notified: %w", err)
	}

	return nil
}

// buildNotification assembles the typed metadata payload and the UI message
// for a notification kind.
func buildNotification(req *model.Request, product *model.Product, kind string) (interface{}, string) {
	switch kind {
	case model.NotifShipped:
		meta := model.ShippedMeta{
			Kind:            kind,
			ProductName:     product.Name,
			TrackingNumber:  req.TrackingNumber,
			ShippingAddress: req.ShippingAddress,
		}
		return meta, fmt.Sprintf("Your order for %s has shipped. Tracking number: %s.",
			product.Name, req.TrackingNumber)

	case model.NotifUnavailable:
		meta := model.ResolutionMeta{
			Kind:             kind,
			ProductName:      product.Name,
			ResolutionStatus: model.ResolutionNotified,
		}
		return meta, fmt.Sprintf("%s is no longer available. Our team will contact you about your open request.",
			product.Name)

	case model.NotifResolved:
		meta := model.ResolutionMeta{
			Kind:             kind,
			ProductName:      product.Name,
			ResolutionStatus: model.ResolutionResolved,
		}
		return meta, fmt.Sprintf("Your request for %s has been resolved.", product.Name)

	default:
		meta := model.StatusChangeMeta{
			Kind:        kind,
			ProductName: product.Name,
			Status:      req.Status,
			Quantity:    req.Quantity,
		}
		var content string
		switch kind {
		case model.NotifPaymentConfirmed:
			content = fmt.Sprintf("Payment confirmed — your request for %d x %s has been approved.",
				req.Quantity, product.Name)
		case model.NotifPaymentPending:
			content = fmt.Sprintf("Payment is pending for your request for %d x %s.",
				req.Quantity, product.Name)
		case model.NotifFulfilled:
			content = fmt.Sprintf("Your request for %d x %s has been fulfilled.",
				req.Quantity, product.Name)
		case model.NotifRejected:
			content = fmt.Sprintf("Your request for %d x %s was rejected.",
				req.Quantity, product.Name)
		default:
			content = fmt.Sprintf("Your request for %s was updated.", product.Name)
		}
		return meta, content
	}
}
