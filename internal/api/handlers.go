package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shuttle-tracker/internal/dashboard"
	"shuttle-tracker/internal/fleet"
	"shuttle-tracker/internal/shuttle"
)

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler checks the demo credentials and mounts the user's view.
func LoginHandler(host *dashboard.Host) gin.HandlerFunc {
	return func(c *gin.Context) {
		var r loginReq
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		u, ok, err := host.Login(c.Request.Context(), r.Email, r.Password)
		if err != nil {
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "login cancelled"})
			return
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func LogoutHandler(host *dashboard.Host) gin.HandlerFunc {
	return func(c *gin.Context) {
		host.Logout(c.Request.Context())
		c.Status(http.StatusNoContent)
	}
}

func SessionHandler(host *dashboard.Host) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := host.Session()
		u, ok := sess.Current()
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in", "loading": sess.Loading()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u, "loading": sess.Loading()})
	}
}

func BusesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, nonNil(view(c).Buses()))
	}
}

func NotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, view(c).Notifications())
	}
}

// DismissHandler is idempotent: unknown or already dismissed ids still get 204.
func DismissHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		view(c).DismissNotification(c.Param("id"))
		c.Status(http.StatusNoContent)
	}
}

func RoutesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, view(c).Routes())
	}
}

type selectRouteReq struct {
	RouteID string `json:"routeId" binding:"required"`
}

func SelectRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var r selectRouteReq
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "routeId required"})
			return
		}
		v := view(c)
		if !v.SelectRoute(r.RouteID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}
		route, _ := v.SelectedRoute()
		c.JSON(http.StatusOK, route)
	}
}

func StopsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, view(c).SelectedStops())
	}
}

// MapHandler renders the map frame, re-centering first when lat and lng are
// both given.
func MapHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := view(c)
		latStr, hasLat := c.GetQuery("lat")
		lngStr, hasLng := c.GetQuery("lng")
		if hasLat || hasLng {
			center, err := parseCenter(latStr, lngStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			zoom := 0
			if z := c.Query("zoom"); z != "" {
				zoom, err = strconv.Atoi(z)
				if err != nil || zoom <= 0 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zoom"})
					return
				}
			}
			v.Map().Focus(center, zoom)
		}
		c.JSON(http.StatusOK, v.Map().Render(v.Buses()))
	}
}

type mapKeyReq struct {
	APIKey string `json:"apiKey"`
}

// MapKeyHandler retries map initialization with a new key.
func MapKeyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var r mapKeyReq
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		v := view(c)
		v.Map().SetAPIKey(c.Request.Context(), r.APIKey)
		c.JSON(http.StatusOK, v.Map().Render(v.Buses()))
	}
}

func StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, view(c).Fleet().Stats())
	}
}

func AddBusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in fleet.BusInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, view(c).Fleet().Add(in))
	}
}

func UpdateBusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in fleet.BusInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		b, ok := view(c).Fleet().Update(c.Param("id"), in)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "bus not found"})
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

type statusReq struct {
	Status shuttle.BusStatus `json:"status" binding:"required,oneof=active delayed inactive"`
}

func BusStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var r statusReq
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		b, ok := view(c).Fleet().SetStatus(c.Param("id"), r.Status)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "bus not found"})
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// DeleteBusHandler answers 204 whether or not the id existed.
func DeleteBusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		view(c).Fleet().Delete(c.Param("id"))
		c.Status(http.StatusNoContent)
	}
}

func AdminNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		all, unread := view(c).AllNotifications()
		c.JSON(http.StatusOK, gin.H{"notifications": nonNil(all), "unread": unread})
	}
}

func parseCenter(lat, lng string) (shuttle.Location, error) {
	if lat == "" || lng == "" {
		return shuttle.Location{}, errors.New("lat and lng must be given together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil || la < -90 || la > 90 {
		return shuttle.Location{}, errors.New("invalid lat")
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil || ln < -180 || ln > 180 {
		return shuttle.Location{}, errors.New("invalid lng")
	}
	return shuttle.Location{Lat: la, Lng: ln}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
