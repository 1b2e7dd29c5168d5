package controller

import (
	"errors"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/suretyx/suretyx/app/node/types"
	"github.com/suretyx/suretyx/pkg/surety"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.HandleFunc("/health", c.HandleHealth).Methods("GET")
	r.HandleFunc("/ws", c.HandleWebSocket).Methods("GET")

	// Substrate stand-ins: participant tokens and the owner session.
	r.HandleFunc("/auth/token", c.HandleMintToken).Methods("POST")
	r.HandleFunc("/admin/login", c.HandleOwnerLogin).Methods("POST")
	r.HandleFunc("/admin/logout", c.HandleOwnerLogout).Methods("POST")

	// Operational gate.
	r.HandleFunc("/operational", c.HandleIsOperational).Methods("GET")
	r.Handle("/operational", c.RequireCaller(c.HandleSetOperational)).Methods("PUT")

	// Airline registry.
	r.Handle("/airlines", c.RequireCaller(c.HandleNominateAirline)).Methods("POST")
	r.Handle("/airlines/{id}/fund", c.RequireCaller(c.HandleFundAirline)).Methods("POST")
	r.HandleFunc("/airlines/{id}", c.HandleGetAirline).Methods("GET")

	// Flight registry.
	r.Handle("/flights", c.RequireCaller(c.HandleRegisterFlight)).Methods("POST")
	r.HandleFunc("/flights", c.HandleListFlights).Methods("GET")
	r.HandleFunc("/flights/{airline}/{flight}/{departure}", c.HandleGetFlight).Methods("GET")

	// Insurance ledger.
	r.Handle("/insurance", c.RequireCaller(c.HandleBuyInsurance)).Methods("POST")
	r.Handle("/insurance/{airline}/{flight}/{departure}", c.RequireCaller(c.HandleInsuredAmount)).Methods("GET")
	r.Handle("/balance", c.RequireCaller(c.HandleBalance)).Methods("GET")
	r.Handle("/withdrawals", c.RequireCaller(c.HandleWithdraw)).Methods("POST")

	// Oracle directory.
	r.Handle("/oracles", c.RequireCaller(c.HandleRegisterOracle)).Methods("POST")
	r.Handle("/oracles/indices", c.RequireCaller(c.HandleOracleIndices)).Methods("GET")
	r.HandleFunc("/fees/registration", c.HandleRegistrationFee).Methods("GET")

	// Status consensus engine.
	r.Handle("/requests", c.RequireCaller(c.HandleOpenRequest)).Methods("POST")
	r.Handle("/responses", c.RequireCaller(c.HandleSubmitResponse)).Methods("POST")

	// ClickHouse-backed audit queries.
	r.HandleFunc("/history/actions", c.HandleRecentActions).Methods("GET")
	r.HandleFunc("/history/flights/{airline}/{flight}/{departure}", c.HandleFlightHistory).Methods("GET")
	r.Handle("/history/payouts", c.RequireCaller(c.HandlePassengerPayouts)).Methods("GET")

	return r, nil
}

// WithCORS wraps the router with permissive CORS for the dapp.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Development: Echo back the origin to allow credentials with any origin
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodPut+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeErr maps a core sentinel to an HTTP status and encodes the error
// body. Unknown errors are treated as internal.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, surety.ErrSystemPaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, surety.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, surety.ErrFlightNotRegistered),
		errors.Is(err, surety.ErrUnknownRequest),
		errors.Is(err, surety.ErrNotRegistered),
		errors.Is(err, surety.ErrUnknownOracle):
		status = http.StatusNotFound
	case errors.Is(err, surety.ErrAlreadyRegistered),
		errors.Is(err, surety.ErrAlreadyInsured),
		errors.Is(err, surety.ErrDuplicateVote),
		errors.Is(err, surety.ErrDuplicateResponse),
		errors.Is(err, surety.ErrAlreadyFinalized):
		status = http.StatusConflict
	case errors.Is(err, surety.ErrNotFunded),
		errors.Is(err, surety.ErrNotFundedAirline),
		errors.Is(err, surety.ErrWrongFee),
		errors.Is(err, surety.ErrInvalidPremium),
		errors.Is(err, surety.ErrPremiumTooHigh),
		errors.Is(err, surety.ErrIndexMismatch),
		errors.Is(err, surety.ErrNothingOwed):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
