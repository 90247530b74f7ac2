package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/api"
)

func TestScenarios_Catalog(t *testing.T) {
	all, err := api.Scenarios()
	require.NoError(t, err)
	require.Len(t, all, 3)

	for _, s := range all {
		t.Run(s.ID, func(t *testing.T) {
			assert.NotEmpty(t, s.OwnerID)
			assert.NotEmpty(t, s.Accounts)
			for _, rj := range s.Rules {
				_, err := rj.Input()
				assert.NoError(t, err, "rule %q", rj.Label)
			}
		})
	}
}

func TestScenarios_LoadAndCurrent(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.ScenarioDTO](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/api/scenarios/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"freelancer"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loaded := decode[map[string]string](t, rec)
	assert.Equal(t, "demo-freelancer", loaded["owner_id"])

	current := decode[api.ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios/current", ""))
	assert.Equal(t, "freelancer", current.ID)

	// Weekly income (6) plus two expense rules (3 each).
	events := decode[[]api.EventDTO](t, ts.do(t, http.MethodGet, "/api/owners/demo-freelancer/events/upcoming", ""))
	assert.Len(t, events, 12)

	// Loading another scenario resets the previous one.
	rec = ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"salaried-renter"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	events = decode[[]api.EventDTO](t, ts.do(t, http.MethodGet, "/api/owners/demo-freelancer/events/upcoming", ""))
	assert.Empty(t, events)
}

func TestScenarios_UnknownID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/scenarios/load", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
