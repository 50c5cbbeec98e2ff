// Package invoices tracks club-fee invoices. The outstanding view is
// read-mostly; invoice bookkeeping flags get the same diff-reconcile
// treatment as the selection screens.
package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/reconcile"
)

var ErrNoInvoices = errors.New("no invoices found")

// Statuses that close out an invoice; they never show as outstanding.
var closedStatuses = []any{"PAID", "VOID", "VOIDED", "DELETED"}

// Row is one invoice on the bookkeeping screen. Amounts are read-only;
// status and the tracking flags are editable.
type Row struct {
	InvoiceID       string  `json:"invoice_id"`
	PlayerName      string  `json:"players_name"`
	Season          string  `json:"season"`
	Grade           string  `json:"grade"`
	Status          string  `json:"status"`
	DueDate         string  `json:"due_date"`
	AmountInvoiced  float64 `json:"amount_invoiced"`
	Discount        float64 `json:"discount"`
	AmountPaid      float64 `json:"amount_paid"`
	AmountCredited  float64 `json:"amount_credited"`
	AmountDue       float64 `json:"total_amount_due"`
	InvoiceSent     bool    `json:"invoice_sent"`
	OnPaymentPlan   bool    `json:"on_payment_plan"`
	DiscountApplied bool    `json:"discount_applied"`
}

// Columns is the invoice snapshot schema.
var Columns = []string{
	"invoice_id",
	"players_name",
	"season",
	"grade",
	"status",
	"due_date",
	"amount_invoiced",
	"discount",
	"amount_paid",
	"amount_credited",
	"total_amount_due",
	"invoice_sent",
	"on_payment_plan",
	"discount_applied",
}

// Outcome reports what an invoice submit wrote.
type Outcome struct {
	Updated int `json:"updated"`
}

// Outstanding loads open invoices due within a month, largest balances
// first. Paid, voided and payment-plan invoices are excluded.
func Outstanding(ctx context.Context, database *db.DB) ([]Row, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			i.id AS invoice_id,
			p.full_name AS players_name,
			r.season,
			COALESCE(r.grade, ''),
			i.status,
			COALESCE(i.due_date, ''),
			i.amount,
			i.discount,
			i.amount_paid,
			i.amount_credited,
			i.amount - (i.discount + i.amount_credited + i.amount_paid) AS total_amount_due,
			i.invoice_sent,
			i.on_payment_plan,
			i.discount_applied
		FROM invoices AS i
		INNER JOIN registrations AS r ON i.registration_id = r.id
		INNER JOIN players AS p ON i.player_id = p.id
		WHERE
			i.status NOT IN (?, ?, ?, ?)
			AND i.due_date < DATE('now', '+1 month')
			AND i.on_payment_plan = FALSE
		ORDER BY r.season, i.due_date, total_amount_due DESC`,
		closedStatuses...,
	)
	if err != nil {
		return nil, fmt.Errorf("outstanding invoices: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Season loads every invoice for a season for bookkeeping edits.
func Season(ctx context.Context, database *db.DB, season string) ([]Row, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			i.id AS invoice_id,
			p.full_name AS players_name,
			r.season,
			COALESCE(r.grade, ''),
			i.status,
			COALESCE(i.due_date, ''),
			i.amount,
			i.discount,
			i.amount_paid,
			i.amount_credited,
			i.amount - (i.discount + i.amount_credited + i.amount_paid) AS total_amount_due,
			i.invoice_sent,
			i.on_payment_plan,
			i.discount_applied
		FROM invoices AS i
		INNER JOIN registrations AS r ON i.registration_id = r.id
		INNER JOIN players AS p ON i.player_id = p.id
		WHERE r.season = ?
		ORDER BY i.due_date, players_name`,
		season,
	)
	if err != nil {
		return nil, fmt.Errorf("season invoices: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Submit writes edited bookkeeping fields for every changed invoice.
func Submit(ctx context.Context, database *db.DB, original, edited []Row) (Outcome, error) {
	changed := reconcile.Changed(original, edited, func(r Row) string { return r.InvoiceID })

	var outcome Outcome
	for _, row := range changed {
		if err := database.UpdateColumn(ctx, "invoices", "status", row.InvoiceID, row.Status); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "invoices", "invoice_sent", row.InvoiceID, row.InvoiceSent); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "invoices", "on_payment_plan", row.InvoiceID, row.OnPaymentPlan); err != nil {
			return outcome, err
		}
		if err := database.UpdateColumn(ctx, "invoices", "discount_applied", row.InvoiceID, row.DiscountApplied); err != nil {
			return outcome, err
		}
		outcome.Updated++
		log.Ctx(ctx).Info().
			Str("invoice_id", row.InvoiceID).
			Str("status", row.Status).
			Msg("Invoice updated")
	}
	return outcome, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	var invoices []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(
			&r.InvoiceID, &r.PlayerName, &r.Season, &r.Grade, &r.Status, &r.DueDate,
			&r.AmountInvoiced, &r.Discount, &r.AmountPaid, &r.AmountCredited, &r.AmountDue,
			&r.InvoiceSent, &r.OnPaymentPlan, &r.DiscountApplied,
		); err != nil {
			return nil, fmt.Errorf("scan invoice row: %w", err)
		}
		invoices = append(invoices, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoices: %w", err)
	}
	if len(invoices) == 0 {
		return nil, ErrNoInvoices
	}
	return invoices, nil
}
