package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// City is a named route endpoint.
type City struct {
	Name string
	Location
}

// Vehicle is the create payload of /api/vehicles.
type Vehicle struct {
	LicensePlate      string  `json:"license_plate"`
	VehicleType       string  `json:"vehicle_type"`
	Status            string  `json:"status"`
	RouteAssigned     string  `json:"route_assigned,omitempty"`
	FuelEfficiencyKML float64 `json:"fuel_efficiency_kml"`
}

// Trip is the create/update payload of /api/trips.
type Trip struct {
	VehicleID              string    `json:"vehicle_id"`
	RouteName              string    `json:"route_name"`
	StartLocation          string    `json:"start_location"`
	EndLocation            string    `json:"end_location"`
	StartTime              time.Time `json:"start_time"`
	Status                 string    `json:"status"`
	ProgressPercent        float64   `json:"progress_percent"`
	EstimatedDurationHours float64   `json:"estimated_duration_hours"`
	DistanceKm             float64   `json:"distance_km"`
}

// Cities for realistic routes
var cities = []City{
	{"London", Location{Lat: 51.5074, Lon: -0.1278}},
	{"Birmingham", Location{Lat: 52.4862, Lon: -1.8904}},
	{"Manchester", Location{Lat: 53.4808, Lon: -2.2426}},
	{"Bristol", Location{Lat: 51.4545, Lon: -2.5879}},
	{"Cardiff", Location{Lat: 51.4816, Lon: -3.1791}},
	{"Leeds", Location{Lat: 53.8008, Lon: -1.5491}},
	{"Southampton", Location{Lat: 50.9097, Lon: -1.4044}},
	{"Cambridge", Location{Lat: 52.2053, Lon: 0.1218}},
	{"Oxford", Location{Lat: 51.7520, Lon: -1.2577}},
	{"Nottingham", Location{Lat: 52.9548, Lon: -1.1581}},
}

var vehicleTypes = []string{"Van", "Truck", "Box Truck", "Pickup", "Car"}

func jitterLocation(base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

func haversineKm(a, b Location) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

func lerp(a, b Location, t float64) Location {
	return Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
}

// --- API client ---

// Client talks to the dashboard API with a bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func newClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// SignIn exchanges credentials for a token and keeps it on the client.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var session struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/signin", map[string]string{"email": email, "password": password}, &session)
	if err != nil {
		return err
	}
	if session.Token == "" {
		return errors.New("sign-in returned no token")
	}
	c.Token = session.Token
	return nil
}

func (c *Client) CreateVehicle(ctx context.Context, v Vehicle) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/vehicles", v, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("invalid vehicle ID in response")
	}
	return created.ID, nil
}

func (c *Client) CreateTrip(ctx context.Context, t Trip) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/trips", t, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) UpdateTrip(ctx context.Context, id string, t Trip) error {
	return c.do(ctx, http.MethodPut, "/trips/"+id, t, nil)
}

func (c *Client) ReportPosition(ctx context.Context, vehicleID string, loc Location) error {
	return c.do(ctx, http.MethodPost, "/vehicles/"+vehicleID+"/position", loc, nil)
}

// --- Routing & movement ---

type VehicleState struct {
	VehicleID string
	Plate     string
	Position  Location
	SpeedKmh  float64

	TripID    string
	Trip      Trip
	From, To  City
	Traveled  float64
	planSpeed float64
}

// planTrip picks a destination city other than the current one and
// estimates the trip with the planned cruising speed.
func planTrip(s *VehicleState, now time.Time) {
	from := s.To
	if from.Name == "" {
		from = cities[rand.Intn(len(cities))]
		s.Position = jitterLocation(from.Location, 500)
	}
	to := from
	for to.Name == from.Name {
		to = cities[rand.Intn(len(cities))]
	}
	dist := haversineKm(from.Location, to.Location)

	s.From, s.To = from, to
	s.Traveled = 0
	s.planSpeed = 45 + rand.Float64()*25
	s.Trip = Trip{
		VehicleID:              s.VehicleID,
		RouteName:              from.Name + " - " + to.Name,
		StartLocation:          from.Name,
		EndLocation:            to.Name,
		StartTime:              now.UTC(),
		Status:                 "in_progress",
		EstimatedDurationHours: math.Round(dist/s.planSpeed*100) / 100,
		DistanceKm:             math.Round(dist*10) / 10,
	}
}

// step advances the vehicle for tick of simulated driving and reports
// whether the destination was reached.
func step(s *VehicleState, tick time.Duration) bool {
	s.SpeedKmh += (rand.Float64()*2 - 1) * 3
	s.SpeedKmh = math.Max(15, math.Min(90, s.SpeedKmh))

	total := haversineKm(s.From.Location, s.To.Location)
	s.Traveled += s.SpeedKmh * tick.Hours()
	if total == 0 || s.Traveled >= total {
		s.Traveled = total
		s.Position = s.To.Location
		s.Trip.ProgressPercent = 100
		s.Trip.Status = "completed"
		return true
	}
	s.Position = lerp(s.From.Location, s.To.Location, s.Traveled/total)
	s.Trip.ProgressPercent = math.Round(s.Traveled/total*1000) / 10
	return false
}

func startTrip(ctx context.Context, c *Client, s *VehicleState) error {
	planTrip(s, time.Now())
	id, err := c.CreateTrip(ctx, s.Trip)
	if err != nil {
		return err
	}
	s.TripID = id
	log.WithFields(log.Fields{"vehicle": s.Plate, "trip_id": id, "route": s.Trip.RouteName}).Info("Trip started")
	return nil
}

func simulateVehicle(ctx context.Context, c *Client, s *VehicleState, interval, simTick time.Duration) {
	if err := startTrip(ctx, c, s); err != nil {
		log.WithError(err).WithField("vehicle", s.Plate).Error("Failed to start trip")
		return
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		arrived := step(s, simTick)
		if err := c.ReportPosition(ctx, s.VehicleID, s.Position); err != nil {
			log.WithError(err).WithField("vehicle", s.Plate).Warn("Failed to report position")
		}
		if err := c.UpdateTrip(ctx, s.TripID, s.Trip); err != nil {
			log.WithError(err).WithField("trip_id", s.TripID).Warn("Failed to update trip")
		}
		if arrived {
			log.WithFields(log.Fields{"vehicle": s.Plate, "route": s.Trip.RouteName}).Info("Trip completed")
			if err := startTrip(ctx, c, s); err != nil {
				log.WithError(err).WithField("vehicle", s.Plate).Error("Failed to start trip")
				return
			}
		}
	}
}

// Config is read from the environment.
type Config struct {
	APIURL    string
	Email     string
	Password  string
	Token     string
	FleetSize int
	Interval  time.Duration
	SimTick   time.Duration
}

func loadConfig() Config {
	cfg := Config{
		APIURL:    os.Getenv("API_BASE_URL"),
		Email:     os.Getenv("SIM_EMAIL"),
		Password:  os.Getenv("SIM_PASSWORD"),
		Token:     os.Getenv("SIM_AUTH_TOKEN"),
		FleetSize: 10,
		Interval:  2 * time.Second,
		SimTick:   time.Minute,
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:8080/api"
	}
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			cfg.FleetSize = n
		}
	}
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.Interval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SIM_SPEEDUP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.SimTick = cfg.Interval * time.Duration(n)
		}
	}
	return cfg
}

func main() {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"fleet_size": cfg.FleetSize,
		"api_url":    cfg.APIURL,
		"interval":   cfg.Interval,
		"sim_tick":   cfg.SimTick,
	}).Info("Starting fleet simulation")

	client := newClient(cfg.APIURL)
	client.Token = cfg.Token
	if cfg.Email != "" {
		if err := client.SignIn(ctx, cfg.Email, cfg.Password); err != nil {
			log.WithError(err).Fatal("Failed to sign in")
		}
	}

	run := fmt.Sprintf("%04d", rand.Intn(10000))
	states := make([]*VehicleState, 0, cfg.FleetSize)
	for i := 0; i < cfg.FleetSize; i++ {
		v := Vehicle{
			LicensePlate:      fmt.Sprintf("SIM-%s-%02d", run, i+1),
			VehicleType:       vehicleTypes[rand.Intn(len(vehicleTypes))],
			Status:            "active",
			FuelEfficiencyKML: math.Round((6+rand.Float64()*10)*10) / 10,
		}
		id, err := client.CreateVehicle(ctx, v)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		log.WithFields(log.Fields{"vehicle_id": id, "plate": v.LicensePlate, "type": v.VehicleType}).Info("Created vehicle")
		states = append(states, &VehicleState{VehicleID: id, Plate: v.LicensePlate, SpeedKmh: 30 + rand.Float64()*30})
	}

	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		log.Error("No vehicles created. Ensure the credentials are valid and the API is reachable. Exiting.")
		return
	}

	var wg sync.WaitGroup
	for _, s := range states {
		wg.Add(1)
		go func(s *VehicleState) {
			defer wg.Done()
			simulateVehicle(ctx, client, s, cfg.Interval, cfg.SimTick)
		}(s)
	}
	log.Info("Simulation started")
	wg.Wait()
	log.Info("Simulation stopped")
}
