package adapthttp

import (
	"net/http"

	"florist/internal/app"
	"florist/internal/domain"
)

func (s *Server) writeCheckout(w http.ResponseWriter, sess *app.ShopSession) {
	writeJSON(w, http.StatusOK, newCheckoutView(sess.Checkout.State()))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s.writeCheckout(w, shopSessionFrom(r.Context()))
}

func (s *Server) handleCheckoutMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess := shopSessionFrom(r.Context())
	if err := sess.Checkout.SetFormMode(domain.FormMode(body.Mode)); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeCheckout(w, sess)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := shopSessionFrom(r.Context())
	err := sess.Checkout.SignUp(r.Context(), app.SignupForm{
		Email:           body.Email,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	setSessionCookie(w, r, s.authSvc.Token(sess.ID))
	s.writeCheckout(w, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := shopSessionFrom(r.Context())
	err := sess.Checkout.SignIn(r.Context(), app.LoginForm{Email: body.Email, Password: body.Password})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	setSessionCookie(w, r, s.authSvc.Token(sess.ID))
	s.writeCheckout(w, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	if err := sess.Checkout.SignOut(r.Context()); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	clearSessionCookie(w)
	s.writeCheckout(w, sess)
}

func (s *Server) handleProceed(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	if err := sess.Checkout.ProceedToPayment(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeCheckout(w, sess)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	if err := sess.Checkout.Back(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeCheckout(w, sess)
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName   string `json:"fullName"`
		Address    string `json:"address"`
		City       string `json:"city"`
		ZipCode    string `json:"zipCode"`
		CardNumber string `json:"cardNumber"`
		ExpiryDate string `json:"expiryDate"`
		CVV        string `json:"cvv"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := shopSessionFrom(r.Context())
	_, err := sess.Checkout.SubmitPayment(r.Context(), domain.PaymentDetails{
		FullName:   body.FullName,
		Address:    body.Address,
		City:       body.City,
		ZipCode:    body.ZipCode,
		CardNumber: body.CardNumber,
		ExpiryDate: body.ExpiryDate,
		CVV:        body.CVV,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeCheckout(w, sess)
}

func (s *Server) handleNewOrder(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	if err := sess.Checkout.StartNewOrder(); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeCheckout(w, sess)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	sess := shopSessionFrom(r.Context())
	user := s.authSvc.CurrentUser(sess.ID)
	if user == nil {
		s.writeAppError(w, r, app.ErrAuthRequired)
		return
	}
	if s.orders == nil {
		writeJSON(w, http.StatusOK, map[string]any{"items": []orderView{}})
		return
	}
	orders, err := s.orders.ListOrdersByUser(r.Context(), user.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": newOrderViews(orders)})
}
