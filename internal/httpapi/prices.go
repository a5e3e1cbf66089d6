package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

type batchPricesRequest struct {
	Items []domain.PriceParams `json:"items"`
}

type batchPricesResponse struct {
	Items []domain.PriceBreakdown `json:"items"`
}

// customerFor prefers an explicit customer id over the caller's profile.
func customerFor(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return IdentityFrom(r.Context()).CustomerID
}

func (s *Server) getPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	quantity := 1
	if raw := q.Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "quantity must be an integer", http.StatusBadRequest)
			return
		}
		quantity = n
	}
	base, err := decimal.NewFromString(q.Get("base_price"))
	if err != nil {
		http.Error(w, "base_price must be a decimal number", http.StatusBadRequest)
		return
	}

	params := domain.PriceParams{
		ProductID:  q.Get("product_id"),
		CustomerID: customerFor(r, q.Get("customer_id")),
		Quantity:   quantity,
		BasePrice:  base,
	}
	price, err := s.pricing.CalculatePrice(r.Context(), params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, price)
}

func (s *Server) getPricesBatch(w http.ResponseWriter, r *http.Request) {
	var req batchPricesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items are required", http.StatusBadRequest)
		return
	}
	for i := range req.Items {
		req.Items[i].CustomerID = customerFor(r, req.Items[i].CustomerID)
	}

	prices, err := s.pricing.CalculatePricesBatch(r.Context(), req.Items)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, batchPricesResponse{Items: prices})
}

func (s *Server) getPricingStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.pricing.Stats())
}

// clearPriceCache drops the entries of one customer, of one product, or all
// of them when neither is given.
func (s *Server) clearPriceCache(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID, productID := q.Get("customer_id"), q.Get("product_id")

	var (
		scope   string
		removed int
	)
	switch {
	case customerID != "" && productID != "":
		http.Error(w, "pass customer_id or product_id, not both", http.StatusBadRequest)
		return
	case customerID != "":
		scope, removed = fmt.Sprintf("customer:%s", customerID), s.pricing.ClearCustomerCache(customerID)
	case productID != "":
		scope, removed = fmt.Sprintf("product:%s", productID), s.pricing.ClearProductCache(productID)
	default:
		scope = "all"
		s.pricing.ClearAllCache()
		removed = -1
	}

	resp := map[string]any{"scope": scope}
	if removed >= 0 {
		resp["removed"] = removed
	}
	writeJSON(w, resp)
}
