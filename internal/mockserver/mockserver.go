// Package mockserver serves a canned copy of the flights sample payload on
// the same path as the production endpoint, for development and tests.
package mockserver

import (
	"log"
	"net/http"

	"github.com/kwiyos/flightdeck/internal/flightapi"
)

// samplePayload mirrors the shape of the production flightssample.json. The
// D7 505 record carries a deliberately malformed departure date so the
// invalid-date handling is visible when developing against the mock.
const samplePayload = `[
  {"flight_name":"AK1","dept_station":"KUL","arvl_station":"SIN","stops":0,"price":150,"currency":"MYR","departureTimeUtc":"2024-01-10T08:00:00","arrivalTimeUtc":"2024-01-10T09:30:00"},
  {"flight_name":"AK2","dept_station":"KUL","arvl_station":"HND","stops":1,"price":550,"currency":"MYR","departureTimeUtc":"2024-01-12T08:00:00","arrivalTimeUtc":"2024-01-12T16:45:00"},
  {"flight_name":"AK1","dept_station":"SIN","arvl_station":"KUL","stops":0,"price":175.5,"currency":"MYR","departureTimeUtc":"2024-01-11T18:20:00","arrivalTimeUtc":"2024-01-11T19:40:00"},
  {"flight_name":"D7 505","dept_station":"KUL","arvl_station":"SYD","stops":0,"price":1250,"currency":"MYR","departureTimeUtc":"12/01/2024 22:00","arrivalTimeUtc":"2024-01-13T08:10:00"},
  {"flight_name":"FD 311","dept_station":"DMK","arvl_station":"KUL","stops":0,"price":200,"currency":"THB","departureTimeUtc":"2024-01-11T06:15:00","arrivalTimeUtc":"2024-01-11T09:30:00"},
  {"flight_name":"AK2","dept_station":"HND","arvl_station":"KUL","stops":1,"price":500,"currency":"MYR","departureTimeUtc":"2024-01-13T10:00:00","arrivalTimeUtc":"2024-01-13T18:00:00"}
]`

// Handler serves the sample flight list on the documented path.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(flightapi.FlightsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	})
	return mux
}

// Start starts the mock HTTP server on the given port (e.g. "8086"). It
// returns the *http.Server so the caller can shut it down when desired.
func Start(port string) *http.Server {
	srv := &http.Server{Addr: ":" + port, Handler: Handler()}
	go func() {
		log.Printf("mockserver: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("mockserver: ListenAndServe error: %v", err)
		}
	}()
	return srv
}
