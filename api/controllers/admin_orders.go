package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/naritchaphan/talad-backend/api/responses"
	"github.com/naritchaphan/talad-backend/api/validators"
	ordersvc "github.com/naritchaphan/talad-backend/internal/orders"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	pkgerrors "github.com/naritchaphan/talad-backend/pkg/errors"
	"github.com/naritchaphan/talad-backend/pkg/logger"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

// AdminOrderList pages through all orders with back-office filters.
func AdminOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := adminOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.Limit = limit
		req.Cursor = r.URL.Query().Get("cursor")

		page, err := svc.AdminList(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// AdminOrderDetail returns any order with items.
func AdminOrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AdminGet(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// AdminOrderStatus moves an order along the lifecycle.
func AdminOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body ordersvc.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), actor, orderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// AdminOrderExport streams the filtered order list as CSV.
func AdminOrderExport(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		req, err := adminOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", ordersvc.ExportFilename(time.Now().UTC())))

		if err := svc.ExportCSV(r.Context(), w, req); err != nil {
			// Headers are already on the wire; the truncated file is the
			// only signal the client gets.
			logg.Error(r.Context(), "order csv export failed", err)
		}
	}
}

func adminOrderFilters(r *http.Request) (ordersvc.AdminListRequest, error) {
	var req ordersvc.AdminListRequest

	status, err := queryOrderStatus(r)
	if err != nil {
		return req, err
	}
	req.Status = status

	if raw := strings.TrimSpace(r.URL.Query().Get("method")); raw != "" {
		method, err := enums.ParseShippingMethod(raw)
		if err != nil {
			return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method filter")
		}
		req.Method = &method
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("placed_after")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "placed_after must be RFC3339")
		}
		req.PlacedAfter = &ts
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("order_number")); raw != "" {
		number, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order_number must be numeric")
		}
		req.OrderNumber = &number
	}

	return req, nil
}
