// Command mockgeo serves canned Nominatim and Overpass responses for local
// development, so the explorer can run without hitting the public OSM APIs.
// Point NOMINATIM_BASE_URL and OVERPASS_BASE_URL at its address.
//
// Usage:
//
//	go run ./cmd/mockgeo -addr :9090
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// Canned fixtures for a handful of well-known places. Queries match on
// substring, case-insensitively; anything else geocodes to no results.
var geocodeFixtures = []struct {
	match    string
	response string
}{
	{
		match: "empire state",
		response: `[{
			"lat": "40.7484",
			"lon": "-73.9857",
			"display_name": "Empire State Building, 350, 5th Avenue, New York, United States",
			"address": {"city": "New York", "state": "New York", "postcode": "10118", "country": "United States"}
		}]`,
	},
	{
		match: "central park",
		response: `[{
			"lat": "40.7829",
			"lon": "-73.9654",
			"display_name": "Central Park, New York, United States",
			"address": {"city": "New York", "state": "New York", "country": "United States"}
		}]`,
	},
	{
		match: "eiffel",
		response: `[{
			"lat": "48.8583",
			"lon": "2.2945",
			"display_name": "Tour Eiffel, Paris, France",
			"address": {"city": "Paris", "postcode": "75007", "country": "France"}
		}]`,
	},
}

const placesResponse = `{
	"elements": [
		{"id": 1001, "lat": 40.7487, "lon": -73.9852, "tags": {"name": "Juniors Restaurant", "amenity": "restaurant"}},
		{"id": 1002, "lat": 40.7490, "lon": -73.9846, "tags": {"name": "Starbucks", "amenity": "cafe"}},
		{"id": 1003, "lat": 40.7478, "lon": -73.9869, "tags": {"name": "Duane Reade", "amenity": "pharmacy"}},
		{"id": 1004, "center": {"lat": 40.7462, "lon": -73.9832}, "tags": {"name": "Kips Bay Library", "amenity": "library"}},
		{"id": 1005, "lat": 40.7502, "lon": -73.9856, "tags": {"amenity": "bank"}}
	]
}`

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", handleSearch)
	mux.HandleFunc("POST /api/interpreter", handleInterpreter)

	log.Printf("mockgeo listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	w.Header().Set("Content-Type", "application/json")
	for _, f := range geocodeFixtures {
		if strings.Contains(q, f.match) {
			fmt.Fprint(w, f.response)
			return
		}
	}
	fmt.Fprint(w, "[]")
}

func handleInterpreter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("data") == "" {
		http.Error(w, "missing data parameter", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, placesResponse)
}
