package adapthttp

import (
	"net/http"
	"strings"

	"florist/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := q.Get("category")
	if category != "" && category != domain.AllCategories {
		if _, err := domain.ParseCategory(category); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	price, err := domain.ParsePriceBracket(q.Get("price"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var tags []string
	for _, v := range q["occasion"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	products := s.catalog.Filter(domain.FilterCriteria{
		Category:  category,
		Price:     price,
		Occasions: s.catalog.KnownOccasions(tags),
	})
	writeJSON(w, http.StatusOK, map[string]any{"items": newProductViews(products)})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProduct(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	html, err := s.render.HTML(p.FullDescription)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	details := p.Details
	if details == nil {
		details = []string{}
	}
	writeJSON(w, http.StatusOK, productDetailView{
		productView:         newProductView(p),
		FullDescriptionHTML: html,
		Details:             details,
	})
}

func (s *Server) handleOccasions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.catalog.Occasions()})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	cols := s.catalog.Collections()
	items := make([]map[string]any, 0, len(cols))
	for _, c := range cols {
		items = append(items, map[string]any{
			"occasion":    c.Occasion,
			"description": c.Description,
			"product":     newProductView(c.Product),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": newProductViews(s.catalog.Featured())})
}

func (s *Server) lookupProduct(w http.ResponseWriter, r *http.Request, id string) (domain.Product, bool) {
	p, err := s.catalog.Get(id)
	if err != nil {
		s.writeAppError(w, r, err)
		return domain.Product{}, false
	}
	return p, true
}
