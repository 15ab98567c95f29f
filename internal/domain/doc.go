// Package domain models the City Explorer location data and the provider
// contracts used to resolve it.
//
// # Data Sources
//
// Addresses are resolved with the OpenStreetMap Nominatim search API
// (https://nominatim.openstreetmap.org). A free-text query returns at most one
// match with an address-component breakdown; latitude and longitude arrive as
// strings and are parsed to floats. The "city" of a result is the first
// present of the city, town, and village components; "state" falls back from
// state to province. Zero results is the normal "address not found" outcome,
// not an error.
//
// Points of interest come from the Overpass API
// (https://overpass-api.de/api/interpreter). A query selects nodes, ways, and
// relations carrying an amenity tag from a fixed allow-list within a radius of
// the origin. Nodes carry their own coordinates; ways and relations carry a
// computed center. The human label of a feature falls back from the name tag
// to the amenity tag to the literal "Unknown".
//
// # Distances
//
// Distances between coordinates use the haversine great-circle formula on a
// spherical Earth (R = 6371000 m), rounded to the nearest whole meter. The
// result is symmetric and zero for identical points.
//
// # Identity
//
// A DetectedAddress gets a fresh UUID at detection time. Re-detecting the same
// text produces a new identity; IDs are unique within a session, nothing more.
// Point-of-interest IDs are the provider's stable element IDs.
package domain
