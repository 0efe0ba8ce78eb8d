package shuttle

import "time"

type BusStatus string

const (
	StatusActive   BusStatus = "active"
	StatusDelayed  BusStatus = "delayed"
	StatusInactive BusStatus = "inactive"
)

func (s BusStatus) Valid() bool {
	switch s {
	case StatusActive, StatusDelayed, StatusInactive:
		return true
	}
	return false
}

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
	NotifySuccess NotificationType = "success"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyInfo, NotifyWarning, NotifyError, NotifySuccess:
		return true
	}
	return false
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Bus struct {
	ID                string    `json:"id"`
	Number            string    `json:"number"`
	Route             string    `json:"route"` // route name, not id
	Driver            string    `json:"driver"`
	Location          Location  `json:"location"`
	SharedLocationURL string    `json:"sharedLocationUrl,omitempty"`
	Status            BusStatus `json:"status"`
	Capacity          int       `json:"capacity"`
	Occupancy         int       `json:"occupancy"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// Stop carries two derived fields that are recomputed per read and never stored.
type Stop struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Location         Location `json:"location"`
	EstimatedArrival string   `json:"estimatedArrival,omitempty"`
	IsActive         bool     `json:"isActive,omitempty"`
}

type Route struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Stops             []Stop `json:"stops"`
	EstimatedDuration int    `json:"estimatedDuration"` // minutes
	Color             string `json:"color"`
}

type User struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Role  Role   `json:"role" validate:"required,oneof=student admin"`
	Email string `json:"email" validate:"required,email"`
}

type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

// Unread returns the notifications whose read flag is unset, preserving order.
func Unread(ns []Notification) []Notification {
	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}
