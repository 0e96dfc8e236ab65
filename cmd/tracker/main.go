package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"backend-fieldtrack/internal/client"
	"backend-fieldtrack/internal/sampler"

	"github.com/spf13/viper"
)

type trackerConfig struct {
	APIURL         string        `mapstructure:"API_URL"`
	WSURL          string        `mapstructure:"WS_URL"`
	Token          string        `mapstructure:"TOKEN"`
	SiteLabel      string        `mapstructure:"SITE_LABEL"`
	ThrottleWindow time.Duration `mapstructure:"THROTTLE_WINDOW"`
}

func loadConfig() trackerConfig {
	viper.AutomaticEnv()
	viper.SetDefault("API_URL", "http://localhost:8080")
	viper.SetDefault("WS_URL", "ws://localhost:8080")
	viper.SetDefault("SITE_LABEL", "")
	viper.SetDefault("THROTTLE_WINDOW", "30s")

	var cfg trackerConfig
	_ = viper.Unmarshal(&cfg)
	return cfg
}

func main() {
	cfg := loadConfig()
	if cfg.Token == "" || cfg.SiteLabel == "" {
		log.Fatal("TOKEN and SITE_LABEL are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lifecycle := client.NewLifecycle(cfg.APIURL, cfg.Token)
	v, err := lifecycle.StartVisit(ctx, cfg.SiteLabel)
	if errors.Is(err, client.ErrConflict) {
		log.Fatal("a visit is already open; end it before starting a new one")
	}
	if err != nil {
		log.Fatalf("start visit: %v", err)
	}
	log.Printf("visit %s started at %q", v.ID, v.SiteLabel)

	tracker := client.NewTracker(cfg.WSURL+"/stream/track", cfg.Token)
	go tracker.Run(ctx)

	s := sampler.New(cfg.ThrottleWindow, func(f sampler.Fix) {
		tracker.SendPosition(v.ID, f.Lat, f.Lng, f.RecordedAt)
	})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	// fixes arrive on stdin as "lat,lng" lines, one per reading
	go readFixes(os.Stdin, s)

	<-signals
	log.Printf("ending visit %s", v.ID)

	tracker.SendStop(v.ID)
	cancel()

	endCtx, endCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer endCancel()
	if err := lifecycle.EndVisit(endCtx, v.ID); err != nil {
		log.Fatalf("end visit: %v", err)
	}
	log.Printf("visit %s closed", v.ID)
}

func readFixes(r *os.File, s *sampler.Sampler) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fix, err := parseFix(line)
		if err != nil {
			s.OfferError(err)
			continue
		}
		s.Offer(fix)
	}
}

func parseFix(line string) (sampler.Fix, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return sampler.Fix{}, fmt.Errorf("malformed fix %q", line)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return sampler.Fix{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return sampler.Fix{}, err
	}
	return sampler.Fix{Lat: lat, Lng: lng, RecordedAt: time.Now()}, nil
}
