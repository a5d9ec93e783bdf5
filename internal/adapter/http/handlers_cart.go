package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"florist/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	writeJSON(w, http.StatusOK, newCartView(sess.Cart.Snapshot()))
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"productId"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.ProductID == "" {
		writeError(w, http.StatusBadRequest, errors.New("productId is required"))
		return
	}
	p, ok := s.lookupProduct(w, r, body.ProductID)
	if !ok {
		return
	}

	sess := shopSessionFrom(r.Context())
	sess.Cart.AddItem(p)
	writeJSON(w, http.StatusOK, newCartView(sess.Cart.Snapshot()))
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := shopSessionFrom(r.Context())
	sess.Cart.UpdateQuantity(chi.URLParam(r, "id"), quantityFromJSON(body.Quantity))
	writeJSON(w, http.StatusOK, newCartView(sess.Cart.Snapshot()))
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	sess.Cart.RemoveItem(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, newCartView(sess.Cart.Snapshot()))
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	sess.Cart.Clear()
	writeJSON(w, http.StatusOK, newCartView(sess.Cart.Snapshot()))
}

// quantityFromJSON accepts a number or a numeric string. Fractions are
// truncated, values above domain.MaxQuantity are capped and anything
// unusable becomes 1.
func quantityFromJSON(raw json.RawMessage) int {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.ParseQuantity(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f < 1 {
		return 1
	}
	if f >= domain.MaxQuantity {
		return domain.MaxQuantity
	}
	return int(f)
}
