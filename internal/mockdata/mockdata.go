// Package mockdata holds the static seed for the campus fleet and the two pure
// functions that animate it: coordinate perturbation and arrival derivation.
package mockdata

import (
	"math/rand"
	"time"

	"shuttle-tracker/internal/shuttle"
)

// Variation is the full width of the per-tick coordinate jitter in degrees.
// Each axis moves by at most Variation/2.
const Variation = 0.001

// ArrivalStep separates consecutive derived arrivals.
const ArrivalStep = 5 * time.Minute

// ArrivalLayout is the hour:minute layout of derived arrivals.
const ArrivalLayout = "15:04"

// DefaultLocation is where buses added from the admin view are placed.
var DefaultLocation = shuttle.Location{Lat: 11.431083, Lng: 78.126139}

type Credential struct {
	Email    string
	Password string
}

var credentials = []Credential{
	{Email: "student@college.edu", Password: "student123"},
	{Email: "admin@college.edu", Password: "admin123"},
}

var users = []shuttle.User{
	{ID: "1", Name: "Student User", Role: shuttle.RoleStudent, Email: "student@college.edu"},
	{ID: "2", Name: "Admin User", Role: shuttle.RoleAdmin, Email: "admin@college.edu"},
}

var stops = []shuttle.Stop{
	{ID: "1", Name: "Main Gate", Location: shuttle.Location{Lat: 40.7589, Lng: -73.9851}},
	{ID: "2", Name: "Library", Location: shuttle.Location{Lat: 40.7614, Lng: -73.9776}},
	{ID: "3", Name: "Student Center", Location: shuttle.Location{Lat: 40.7505, Lng: -73.9934}},
	{ID: "4", Name: "Dormitory A", Location: shuttle.Location{Lat: 40.7647, Lng: -73.9753}},
	{ID: "5", Name: "Engineering Building", Location: shuttle.Location{Lat: 40.7549, Lng: -73.9840}},
	{ID: "6", Name: "Sports Complex", Location: shuttle.Location{Lat: 40.7682, Lng: -73.9688}},
	{ID: "7", Name: "Medical Center", Location: shuttle.Location{Lat: 40.7489, Lng: -73.9972}},
	{ID: "8", Name: "Parking Lot C", Location: shuttle.Location{Lat: 40.7701, Lng: -73.9624}},
}

// Credentials returns the two demo credential records.
func Credentials() []Credential {
	return append([]Credential(nil), credentials...)
}

// Users returns a copy of the seed users.
func Users() []shuttle.User {
	return append([]shuttle.User(nil), users...)
}

// UserByEmail returns the seed user registered under email.
func UserByEmail(email string) (shuttle.User, bool) {
	for _, u := range Users() {
		if u.Email == email {
			return u, true
		}
	}
	return shuttle.User{}, false
}

func Stops() []shuttle.Stop {
	return append([]shuttle.Stop(nil), stops...)
}

// Routes returns the seed routes. Loop routes repeat their first stop at the end.
func Routes() []shuttle.Route {
	pick := func(idx ...int) []shuttle.Stop {
		out := make([]shuttle.Stop, 0, len(idx))
		for _, i := range idx {
			out = append(out, stops[i])
		}
		return out
	}
	return []shuttle.Route{
		{ID: "1", Name: "Campus Loop", Stops: pick(0, 1, 2, 4, 0), EstimatedDuration: 25, Color: "#2563eb"},
		{ID: "2", Name: "Dormitory Express", Stops: pick(0, 3, 5, 7, 0), EstimatedDuration: 20, Color: "#059669"},
		{ID: "3", Name: "Medical Shuttle", Stops: pick(2, 6, 1, 2), EstimatedDuration: 15, Color: "#dc2626"},
	}
}

// Buses returns a fresh copy of the seed fleet stamped with now.
func Buses(now time.Time) []shuttle.Bus {
	return []shuttle.Bus{
		{
			ID: "1", Number: "BUS-001", Route: "Campus Loop", Driver: "John Smith",
			Location:          shuttle.Location{Lat: 40.7589, Lng: -73.9851},
			SharedLocationURL: "https://maps.app.goo.gl/n7ZdRmduioA2ym1i6",
			Status:            shuttle.StatusActive, Capacity: 45, Occupancy: 32, LastUpdated: now,
		},
		{
			ID: "2", Number: "BUS-002", Route: "Dormitory Express", Driver: "Sarah Johnson",
			Location:          shuttle.Location{Lat: 40.7614, Lng: -73.9776},
			SharedLocationURL: "https://maps.app.goo.gl/8XtKvQzM9nN5pP2r7",
			Status:            shuttle.StatusDelayed, Capacity: 45, Occupancy: 28, LastUpdated: now,
		},
		{
			ID: "3", Number: "BUS-003", Route: "Medical Shuttle", Driver: "Mike Davis",
			Location:          shuttle.Location{Lat: 40.7505, Lng: -73.9934},
			SharedLocationURL: "https://maps.app.goo.gl/4BcDeFgH2iJ3kL4m8",
			Status:            shuttle.StatusActive, Capacity: 30, Occupancy: 15, LastUpdated: now,
		},
		{
			ID: "4", Number: "BUS-004", Route: "Campus Loop", Driver: "Emily Brown",
			Location:          shuttle.Location{Lat: 40.7647, Lng: -73.9753},
			SharedLocationURL: "https://maps.app.goo.gl/5NoP6qR7sT8uV9w0A",
			Status:            shuttle.StatusInactive, Capacity: 45, Occupancy: 0, LastUpdated: now,
		},
	}
}

// Notifications returns the seed backlog with timestamps relative to now.
func Notifications(now time.Time) []shuttle.Notification {
	return []shuttle.Notification{
		{
			ID: "1", Title: "Bus Delay Alert",
			Message:   "BUS-002 is delayed by 10 minutes due to traffic.",
			Type:      shuttle.NotifyWarning,
			Timestamp: now.Add(-5 * time.Minute),
		},
		{
			ID: "2", Title: "Route Update",
			Message:   "Campus Loop route will have a temporary stop at the New Academic Building.",
			Type:      shuttle.NotifyInfo,
			Timestamp: now.Add(-15 * time.Minute),
		},
		{
			ID: "3", Title: "Service Resumed",
			Message:   "Medical Shuttle service has resumed normal operations.",
			Type:      shuttle.NotifySuccess,
			Timestamp: now.Add(-30 * time.Minute),
			Read:      true,
		},
	}
}

// Perturber moves buses by a bounded random offset. Rand must return values in [0,1).
type Perturber struct {
	Rand func() float64
	Now  func() time.Time
}

var defaultPerturber = Perturber{Rand: rand.Float64, Now: time.Now}

// UpdateBusLocation returns a copy of b with jittered coordinates and a fresh
// timestamp strictly after b.LastUpdated.
func (p Perturber) UpdateBusLocation(b shuttle.Bus) shuttle.Bus {
	b.Location = shuttle.Location{
		Lat: b.Location.Lat + (p.Rand()-0.5)*Variation,
		Lng: b.Location.Lng + (p.Rand()-0.5)*Variation,
	}
	now := p.Now()
	if !now.After(b.LastUpdated) {
		now = b.LastUpdated.Add(time.Nanosecond)
	}
	b.LastUpdated = now
	return b
}

// Tick applies UpdateBusLocation to every bus and returns a new slice.
func (p Perturber) Tick(buses []shuttle.Bus) []shuttle.Bus {
	out := make([]shuttle.Bus, len(buses))
	for i, b := range buses {
		out[i] = p.UpdateBusLocation(b)
	}
	return out
}

func UpdateBusLocation(b shuttle.Bus) shuttle.Bus { return defaultPerturber.UpdateBusLocation(b) }

// Tick perturbs every bus with the process random source and wall clock.
func Tick(buses []shuttle.Bus) []shuttle.Bus { return defaultPerturber.Tick(buses) }

// DeriveArrivals stamps synthetic ETAs on stops relative to the current time.
func DeriveArrivals(stops []shuttle.Stop) []shuttle.Stop {
	return DeriveArrivalsAt(stops, time.Now())
}

// DeriveArrivalsAt gives stop i an arrival of now+(i+1)*ArrivalStep formatted in
// now's location, and marks only the first stop active.
func DeriveArrivalsAt(stops []shuttle.Stop, now time.Time) []shuttle.Stop {
	out := make([]shuttle.Stop, len(stops))
	for i, s := range stops {
		s.EstimatedArrival = now.Add(time.Duration(i+1) * ArrivalStep).Format(ArrivalLayout)
		s.IsActive = i == 0
		out[i] = s
	}
	return out
}
