// Command simulator generates synthetic card transactions and posts them to
// a running fraudlens server. Useful for demos and load checks: it fetches
// the active customer ids, then fires randomized feature vectors at
// /api/predict at a configurable rate.
//
// Usage:
//
//	go run ./cmd/simulator -target http://localhost:8000 -rate 2
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fraudlens/fraudlens/internal/scoring"
)

var merchants = []string{
	"Acme Mart", "Corner Store", "Luxe Hotels", "Night Owl Fuel",
	"Cloud Gadgets", "Daily Grind Coffee", "Metro Transit", "Island Duty Free",
}

type metadata struct {
	CustomerID int64   `json:"customer_id"`
	Merchant   string  `json:"merchant"`
	Amount     float64 `json:"amount"`
}

type predictRequest struct {
	Features []float64 `json:"features"`
	Metadata metadata  `json:"metadata"`
}

func main() {
	_ = godotenv.Load()

	target := flag.String("target", envOr("SIMULATOR_TARGET", "http://localhost:8000"), "fraudlens base URL")
	rate := flag.Float64("rate", 1, "transactions per second")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	ids, err := fetchCustomerIDs(client, *target)
	if err != nil {
		log.Fatalf("fetch customer ids: %v", err)
	}
	if len(ids) == 0 {
		log.Fatal("no active customers registered; create some first")
	}
	log.Printf("simulating against %s with %d customers at %.1f tx/s", *target, len(ids), *rate)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / *rate))
	defer ticker.Stop()

	var sent, failed int
	for {
		select {
		case <-stop:
			log.Printf("done: %d sent, %d failed", sent, failed)
			return
		case <-ticker.C:
			if err := postTransaction(client, *target, ids[rand.Intn(len(ids))]); err != nil {
				failed++
				log.Printf("predict failed: %v", err)
			} else {
				sent++
			}
		}
	}
}

func fetchCustomerIDs(client *http.Client, target string) ([]int64, error) {
	resp, err := client.Get(target + "/api/customers/ids")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	var ids []int64
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func postTransaction(client *http.Client, target string, customerID int64) error {
	// Mostly mundane traffic with an occasional anomalous vector, so the
	// dashboard shows a realistic mix of decisions.
	features := make([]float64, scoring.FeatureCount)
	scale := 0.5
	if rand.Float64() < 0.1 {
		scale = 3.0
	}
	for i := 0; i < scoring.AmountIndex; i++ {
		features[i] = rand.NormFloat64() * scale
	}
	amount := 100 + rand.Float64()*30000 // LKR
	features[scoring.AmountIndex] = amount

	body, err := json.Marshal(predictRequest{
		Features: features,
		Metadata: metadata{
			CustomerID: customerID,
			Merchant:   merchants[rand.Intn(len(merchants))],
			Amount:     amount,
		},
	})
	if err != nil {
		return err
	}

	resp, err := client.Post(target+"/api/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
