package orders

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

var exportHeader = []string{
	"order_number", "status", "shipping_method", "subtotal_satang",
	"shipping_fee_satang", "total_satang", "transaction_ref",
	"paid_at", "cancelled_at", "created_at",
}

// exportPageSize keeps each export query bounded.
const exportPageSize = pagination.MaxLimit

// ExportCSV streams the filtered order list as CSV, walking cursor pages
// until the filter is exhausted.
func (s *service) ExportCSV(ctx context.Context, w io.Writer, req AdminListRequest) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}

	cursor := ""
	for {
		result, err := s.repo.List(ctx, pagination.Params{Limit: exportPageSize, Cursor: cursor}, ListFilters{
			Status:      req.Status,
			Method:      req.Method,
			PlacedAfter: req.PlacedAfter,
			OrderNumber: req.OrderNumber,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders for export")
		}
		for i := range result.Orders {
			order := &result.Orders[i]
			record := []string{
				strconv.FormatInt(order.OrderNumber, 10),
				order.Status.String(),
				order.ShippingMethod.String(),
				strconv.Itoa(order.SubtotalSatang),
				strconv.Itoa(order.ShippingFeeSatang),
				strconv.Itoa(order.TotalSatang),
				deref(order.TransactionRef),
				formatTime(order.PaidAt),
				formatTime(order.CancelledAt),
				order.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
			}
		}
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}

// ExportFilename names the download after the day it was taken.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("orders-%s.csv", now.UTC().Format("2006-01-02"))
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
