package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suretyx/suretyx/app/node/types"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const testOwnerPassword = "hunter2"

// setupTestRouter creates a controller wired to an in-memory core with no
// history database or redis.
func setupTestRouter(t *testing.T) (*Controller, *mux.Router) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	hash, err := bcrypt.GenerateFromPassword([]byte(testOwnerPassword), bcrypt.MinCost)
	require.NoError(t, err)

	app := &types.App{
		Core:      surety.New(logger, surety.DefaultParams(), "owner", "airline-1"),
		Hub:       types.NewHub(logger),
		JWTSecret: []byte("test-secret"),
		OwnerID:   "owner",
		OwnerHash: hash,
		Logger:    logger,
	}
	ctler := NewController(app)
	router, err := ctler.NewRouter()
	require.NoError(t, err)
	return ctler, router
}

// doJSON performs one request against the router and decodes the response
// into out when it is non-nil.
func doJSON(t *testing.T, router *mux.Router, method, path, token string, in, out any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

// mintToken obtains a bearer token for a participant from the dev endpoint.
func mintToken(t *testing.T, router *mux.Router, participant string) string {
	t.Helper()
	var out rpc.TokenResponse
	rec := doJSON(t, router, http.MethodPost, "/auth/token", "", rpc.TokenRequest{Participant: participant}, &out)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, out.Token)
	return out.Token
}

// fundAirline self-funds an airline to the default threshold over HTTP.
func fundAirline(t *testing.T, router *mux.Router, id, token string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/airlines/"+id+"/fund", token,
		rpc.FundAirlineRequest{Amount: surety.DefaultParams().FundingThreshold}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	_, router := setupTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequireCaller(t *testing.T) {
	_, router := setupTestRouter(t)

	// No credentials.
	rec := doJSON(t, router, http.MethodGet, "/balance", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = doJSON(t, router, http.MethodGet, "/balance", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Minted token.
	token := mintToken(t, router, "pax-1")
	var out rpc.BalanceResponse
	rec = doJSON(t, router, http.MethodGet, "/balance", token, nil, &out)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, out.Balance)
}

func TestMintTokenRequiresParticipant(t *testing.T) {
	_, router := setupTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/auth/token", "", rpc.TokenRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAirlineEndpoints(t *testing.T) {
	_, router := setupTestRouter(t)
	airline1 := mintToken(t, router, "airline-1")

	// Unfunded nomination is rejected as a bad request.
	rec := doJSON(t, router, http.MethodPost, "/airlines", airline1, rpc.NominateAirlineRequest{Airline: "airline-2"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Funding someone else's airline is forbidden.
	rec = doJSON(t, router, http.MethodPost, "/airlines/airline-2/fund", airline1, rpc.FundAirlineRequest{Amount: 1}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	fundAirline(t, router, "airline-1", airline1)

	var nominated rpc.NominateAirlineResponse
	rec = doJSON(t, router, http.MethodPost, "/airlines", airline1, rpc.NominateAirlineRequest{Airline: "airline-2"}, &nominated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, nominated.Registered)

	var got rpc.AirlineResponse
	rec = doJSON(t, router, http.MethodGet, "/airlines/airline-2", "", nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Registered)
	assert.Zero(t, got.Funds)
}

func TestFlightAndInsuranceEndpoints(t *testing.T) {
	_, router := setupTestRouter(t)
	airline1 := mintToken(t, router, "airline-1")
	fundAirline(t, router, "airline-1", airline1)

	flight := rpc.FlightRef{Airline: "airline-1", Flight: "SX100", Departure: 1_700_000_000}
	rec := doJSON(t, router, http.MethodPost, "/flights", airline1, flight, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same key twice conflicts.
	rec = doJSON(t, router, http.MethodPost, "/flights", airline1, flight, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var flights rpc.FlightsResponse
	rec = doJSON(t, router, http.MethodGet, "/flights", "", nil, &flights)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, flights.Flights, 1)
	assert.Equal(t, uint32(surety.StatusUnknown), flights.Flights[0].Status)

	pax := mintToken(t, router, "pax-1")

	// Over the premium cap.
	rec = doJSON(t, router, http.MethodPost, "/insurance", pax, rpc.BuyInsuranceRequest{FlightRef: flight, Amount: 1_400_000}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/insurance", pax, rpc.BuyInsuranceRequest{FlightRef: flight, Amount: 130_000}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Double purchase conflicts.
	rec = doJSON(t, router, http.MethodPost, "/insurance", pax, rpc.BuyInsuranceRequest{FlightRef: flight, Amount: 130_000}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var insured rpc.InsuredAmountResponse
	path := fmt.Sprintf("/insurance/%s/%s/%d", flight.Airline, flight.Flight, flight.Departure)
	rec = doJSON(t, router, http.MethodGet, path, pax, nil, &insured)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(130_000), insured.Amount)

	// Unknown flight reads as unregistered, not as an error.
	var got rpc.FlightResponse
	rec = doJSON(t, router, http.MethodGet, "/flights/airline-1/SX404/1", "", nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, got.Registered)
}

func TestOracleAndConsensusEndpoints(t *testing.T) {
	ctler, router := setupTestRouter(t)
	airline1 := mintToken(t, router, "airline-1")
	fundAirline(t, router, "airline-1", airline1)

	flight := rpc.FlightRef{Airline: "airline-1", Flight: "SX100", Departure: 1_700_000_000}
	rec := doJSON(t, router, http.MethodPost, "/flights", airline1, flight, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	pax := mintToken(t, router, "pax-1")
	rec = doJSON(t, router, http.MethodPost, "/insurance", pax, rpc.BuyInsuranceRequest{FlightRef: flight, Amount: 130_000}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	fee := ctler.App.Core.RegistrationFee()

	// Wrong fee is rejected.
	badOracle := mintToken(t, router, "oracle-bad")
	rec = doJSON(t, router, http.MethodPost, "/oracles", badOracle, rpc.RegisterOracleRequest{Fee: fee - 1}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Indices before registration are a 404.
	rec = doJSON(t, router, http.MethodGet, "/oracles/indices", badOracle, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var opened rpc.OpenRequestResponse
	rec = doJSON(t, router, http.MethodPost, "/requests", pax, flight, &opened)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Register oracles until three hold the drawn index.
	type holder struct {
		id    string
		token string
	}
	var holders []holder
	var outsider holder
	for i := 1; (len(holders) < 3 || outsider.id == "") && i <= 200; i++ {
		id := fmt.Sprintf("oracle-%d", i)
		token := mintToken(t, router, id)
		var indices rpc.IndicesResponse
		rec = doJSON(t, router, http.MethodPost, "/oracles", token, rpc.RegisterOracleRequest{Fee: fee}, &indices)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, indices.Indices, 3)

		holds := false
		for _, idx := range indices.Indices {
			if idx == opened.Index {
				holds = true
				break
			}
		}
		if holds {
			holders = append(holders, holder{id: id, token: token})
		} else if outsider.id == "" {
			outsider = holder{id: id, token: token}
		}
	}
	require.Len(t, holders, 3, "could not assemble a quorum of index holders")
	require.NotEmpty(t, outsider.id, "no oracle without the index was drawn")

	response := rpc.OracleResponseRequest{
		FlightRef: flight,
		Index:     opened.Index,
		Status:    uint32(surety.StatusLateAirline),
	}

	// An oracle not holding the index cannot answer.
	rec = doJSON(t, router, http.MethodPost, "/responses", outsider.token, response, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i, h := range holders {
		var out rpc.OracleResponseResponse
		rec = doJSON(t, router, http.MethodPost, "/responses", h.token, response, &out)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, i == 2, out.Finalized)
	}

	// A late response conflicts with the finalized request.
	rec = doJSON(t, router, http.MethodPost, "/responses", outsider.token, response, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code) // index mismatch still wins

	var got rpc.FlightResponse
	path := fmt.Sprintf("/flights/%s/%s/%d", flight.Airline, flight.Flight, flight.Departure)
	rec = doJSON(t, router, http.MethodGet, path, "", nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint32(surety.StatusLateAirline), got.Status)

	// The insuree was credited at 1.5x and can withdraw exactly once.
	var balance rpc.BalanceResponse
	rec = doJSON(t, router, http.MethodGet, "/balance", pax, nil, &balance)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(195_000), balance.Balance)

	var withdrawn rpc.WithdrawResponse
	rec = doJSON(t, router, http.MethodPost, "/withdrawals", pax, nil, &withdrawn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(195_000), withdrawn.Amount)

	rec = doJSON(t, router, http.MethodPost, "/withdrawals", pax, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResponseValidatesStatusCode(t *testing.T) {
	_, router := setupTestRouter(t)
	token := mintToken(t, router, "oracle-1")

	flight := rpc.FlightRef{Airline: "airline-1", Flight: "SX100", Departure: 1}
	for _, status := range []uint32{0, 25} {
		rec := doJSON(t, router, http.MethodPost, "/responses", token,
			rpc.OracleResponseRequest{FlightRef: flight, Index: 0, Status: status}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestOperationalGateEndpoints(t *testing.T) {
	_, router := setupTestRouter(t)

	var status rpc.OperationalStatus
	rec := doJSON(t, router, http.MethodGet, "/operational", "", nil, &status)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, status.Operational)

	// Only the owner may flip the gate.
	airline1 := mintToken(t, router, "airline-1")
	rec = doJSON(t, router, http.MethodPut, "/operational", airline1, rpc.OperationalStatus{Operational: false}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	owner := mintToken(t, router, "owner")
	rec = doJSON(t, router, http.MethodPut, "/operational", owner, rpc.OperationalStatus{Operational: false}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Actions bounce while paused, reads do not.
	fundReq := rpc.FundAirlineRequest{Amount: 1}
	rec = doJSON(t, router, http.MethodPost, "/airlines/airline-1/fund", airline1, fundReq, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/flights", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/operational", owner, rpc.OperationalStatus{Operational: true}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/airlines/airline-1/fund", airline1, fundReq, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOwnerSession(t *testing.T) {
	_, router := setupTestRouter(t)

	// Wrong password.
	rec := doJSON(t, router, http.MethodPost, "/admin/login", "", map[string]string{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/admin/login", "", map[string]string{"password": testOwnerPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var session *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "sx_session" {
			session = cookie
		}
	}
	require.NotNil(t, session, "login must set the session cookie")

	// The session cookie authenticates the owner on gated routes.
	raw, err := json.Marshal(rpc.OperationalStatus{Operational: false})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/operational", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(session)
	cookieRec := httptest.NewRecorder()
	router.ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)
}
