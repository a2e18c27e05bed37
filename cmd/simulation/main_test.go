package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineClient() *simulationClient {
	// Quote lookups fail fast so limit pegging is skipped.
	return &simulationClient{
		baseURL: "http://127.0.0.1:1",
		client:  &http.Client{Timeout: 50 * time.Millisecond},
		stats: map[string]*routeStats{
			"market": {name: "Market Snapshot"},
		},
	}
}

func TestExecutionWindow(t *testing.T) {
	start, end := executionWindow(time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local))
	assert.Equal(t, "12:00", start)
	assert.Equal(t, "13:00", end)

	// Windows never wrap past midnight.
	start, end = executionWindow(time.Date(2026, 8, 28, 23, 30, 0, 0, time.Local))
	assert.Equal(t, "23:30", start)
	assert.Equal(t, "23:59", end)
}

func TestRandomOrder_AlgoOrdersCarryTimeWindow(t *testing.T) {
	sc := offlineClient()

	sawAlgo := false
	for i := 0; i < 200; i++ {
		order := randomOrder(sc)
		require.Contains(t, []string{"NONE", "POV", "VWAP", "ICEBERG"}, order.AlgoType)

		if order.AlgoType == "NONE" {
			assert.Empty(t, order.StartTime)
			assert.Empty(t, order.EndTime)
			continue
		}

		sawAlgo = true
		// Intake validation rejects algo orders without a start and end time.
		require.NotEmpty(t, order.StartTime)
		require.NotEmpty(t, order.EndTime)
		_, err := time.Parse("15:04", order.StartTime)
		assert.NoError(t, err)
		_, err = time.Parse("15:04", order.EndTime)
		assert.NoError(t, err)
		require.NotNil(t, order.AlgoParams)
	}
	assert.True(t, sawAlgo, "the order mix should include algo orders")
}
