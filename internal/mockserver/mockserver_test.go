package mockserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwiyos/flightdeck/internal/filter"
	"github.com/kwiyos/flightdeck/internal/flightapi"
)

func TestHandlerServesDecodableSample(t *testing.T) {
	ts := httptest.NewServer(Handler())
	defer ts.Close()

	client := flightapi.NewWithBaseURL(ts.URL, time.Second)
	offers, err := client.FetchFlights(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 6)

	assert.Equal(t, []string{"AK1", "AK2", "D7 505", "FD 311"}, filter.AirlineOptions(offers))

	// The deliberately malformed record decodes with an invalid departure.
	assert.False(t, offers[3].DepartureTime.Valid)
	assert.True(t, offers[3].ArrivalTime.Valid)
}
