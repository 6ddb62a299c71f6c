// Command simulator drives a single vehicle through a repeating
// drive/park/charge cycle against a running chargeplan-core instance,
// posting telemetry samples the way a vendor adapter would.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
)

var (
	serverURL  = flag.String("server", "http://localhost:8080", "chargeplan-core base URL")
	vehicleID  = flag.String("vehicle", "sim-vehicle-1", "vehicle ID to simulate")
	homeLat    = flag.Float64("lat", 52.379189, "home latitude, degrees")
	homeLon    = flag.Float64("lon", 4.899431, "home longitude, degrees")
	interval   = flag.Duration("interval", 10*time.Second, "time between telemetry samples")
	cycleMin   = flag.Duration("cycle", 2*time.Minute, "how long each drive/park/charge phase lasts")
	verbose    = flag.Bool("verbose", false, "enable debug logging")
)

// phase tracks where the simulated vehicle is in its repeating cycle.
type phase int

const (
	phaseDriving phase = iota
	phaseParkedDisconnected
	phaseCharging
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sim := &simulator{
		client:       &http.Client{Timeout: 10 * time.Second},
		serverURL:    *serverURL,
		vehicle:      *vehicleID,
		homeLat:      *homeLat,
		homeLon:      *homeLon,
		level:        70,
		odometerM:    50_000_000,
		sampleEvery:  *interval,
		log:          logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	cycleTicker := time.NewTicker(*cycleMin)
	defer cycleTicker.Stop()

	logger.Info("simulator started",
		zap.String("server", *serverURL),
		zap.String("vehicle", *vehicleID),
		zap.Duration("interval", *interval),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("simulator stopped")
			return
		case <-cycleTicker.C:
			sim.advancePhase()
		case <-ticker.C:
			sim.tick()
		}
	}
}

type simulator struct {
	client      *http.Client
	serverURL   string
	vehicle     string
	homeLat     float64
	homeLon     float64
	level       int
	odometerM   int64
	sampleEvery time.Duration
	phase       phase
	log         *zap.Logger
}

func (s *simulator) advancePhase() {
	s.phase = (s.phase + 1) % 3
	s.log.Info("advancing phase", zap.Int("phase", int(s.phase)))
}

func (s *simulator) tick() {
	input := s.sample()
	if err := s.post("/api/v1/telemetry", input); err != nil {
		s.log.Error("failed to post telemetry", zap.Error(err))
	}
}

func (s *simulator) sample() domain.UpdateVehicleDataInput {
	input := domain.UpdateVehicleDataInput{
		ID:                  s.vehicle,
		LatDeg:              s.homeLat,
		LonDeg:              s.homeLon,
		OutsideTemperatureC: 15 + rand.Float64()*5,
		InsideTemperatureC:  20,
	}

	switch s.phase {
	case phaseDriving:
		input.IsDriving = true
		input.LatDeg += (rand.Float64() - 0.5) * 0.05
		input.LonDeg += (rand.Float64() - 0.5) * 0.05
		s.odometerM += 2_000
		if s.level > 30 {
			s.level--
		}
	case phaseParkedDisconnected:
		// vehicle stays put, unplugged
	case phaseCharging:
		input.ConnectedCharger = domain.ConnectedChargerAC
		power := 7.4
		energy := power * s.sampleEvery.Seconds() / 3600
		input.PowerUseKW = &power
		input.EnergyAddedKWh = &energy
		if s.level < 90 {
			s.level++
		}
	}

	input.BatteryLevel = s.level
	input.OdometerM = s.odometerM
	return input
}

func (s *simulator) post(path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := s.client.Post(s.serverURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return nil
}
