package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurehub/internal/model"
	"procurehub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const invoiceDueDays = 14

// InvoiceTrigger creates and maintains the invoice attached to a request.
// Generate is idempotent per request: calling it twice never duplicates an
// invoice (a unique index on request_id backs this at the store level too).
type InvoiceTrigger interface {
	Generate(ctx context.Context, req *model.Request) (*model.Invoice, error)
	MarkPaid(ctx context.Context, requestID uuid.UUID) error
	CancelForRequest(ctx context.Context, requestID uuid.UUID) error
}

type invoiceTrigger struct {
	invoices repository.InvoiceRepository
	products repository.ProductRepository
}

func NewInvoiceTrigger(invoices repository.InvoiceRepository, products repository.ProductRepository) InvoiceTrigger {
	return &invoiceTrigger{invoices: invoices, products: products}
}

func (t *invoiceTrigger) Generate(ctx context.Context, req *model.Request) (*model.Invoice, error) {
	existing, err := t.invoices.FindByRequestID(ctx, req.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up existing invoice: %w", err)
	}

	product := req.Product
	if product == nil {
		loaded, loadErr := t.products.FindByID(ctx, req.ProductID)
		if loadErr != nil {
			return nil, fmt.Errorf("load product for invoice: %w", loadErr)
		}
		product = loaded
	}

	invoiceNo, err := t.nextInvoiceNo(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	amount := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(req.Quantity)))
	invoice := model.Invoice{
		InvoiceNo: invoiceNo,
		RequestID: req.ID,
		Amount:    amount,
		Status:    model.InvoiceStatusDraft,
		DueDate:   time.Now().AddDate(0, 0, invoiceDueDays),
	}
	if err := t.invoices.Create(ctx, &invoice); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	return &invoice, nil
}

func (t *invoiceTrigger) MarkPaid(ctx context.Context, requestID uuid.UUID) error {
	invoice, err := t.invoices.FindByRequestID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("invoice for request %s: %w", requestID, err)
	}
	if invoice.Status == model.InvoiceStatusPaid {
		return nil
	}
	if err := t.invoices.UpdateStatus(ctx, invoice.ID, model.InvoiceStatusPaid); err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}
	return nil
}

// CancelForRequest cancels an unsettled invoice when its request is rejected.
// Paid invoices stay paid; a missing invoice is not an error.
func (t *invoiceTrigger) CancelForRequest(ctx context.Context, requestID uuid.UUID) error {
	invoice, err := t.invoices.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("invoice for request %s: %w", requestID, err)
	}
	if invoice.Status == model.InvoiceStatusPaid || invoice.Status == model.InvoiceStatusCancelled {
		return nil
	}
	if err := t.invoices.UpdateStatus(ctx, invoice.ID, model.InvoiceStatusCancelled); err != nil {
		return fmt.Errorf("cancel invoice: %w", err)
	}
	return nil
}

func (t *invoiceTrigger) nextInvoiceNo(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "INV-" + today + "-"

	t.invoices.LockNumberSequence(ctx, prefix)

	count, err := t.invoices.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
