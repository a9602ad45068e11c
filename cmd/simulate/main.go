package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellnest/clinic-backend/internal/config"
	"github.com/wellnest/clinic-backend/internal/db"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookRatio    float64
	CancelRatio  float64
	ReadRatio    float64
	SessionLimit int
	Password     string
	PostgresDSN  string
}

type bookingTarget struct {
	DoctorID  int64
	ServiceID int64
}

// session is one logged-in patient. Cancels only touch appointments the
// session booked itself, since the API rejects cancels by non-owners.
type session struct {
	Token string

	mu    sync.Mutex
	appts []int64
}

func (s *session) AddAppointment(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appts = append(s.appts, id)
}

func (s *session) TakeRandomAppointment(rng *rand.Rand) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.appts) == 0 {
		return 0, false
	}
	idx := rng.Intn(len(s.appts))
	id := s.appts[idx]
	s.appts[idx] = s.appts[len(s.appts)-1]
	s.appts = s.appts[:len(s.appts)-1]
	return id, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Book   OperationMetrics
	Cancel OperationMetrics
	Read   OperationMetrics
}

type Simulator struct {
	config   SimConfig
	sessions []*session
	targets  []bookingTarget
	client   *http.Client
	metrics  Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d book=%.2f cancel=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookRatio, cfg.CancelRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	client := &http.Client{Timeout: 10 * time.Second}

	targets, err := loadTargets(ctx, pgPool)
	if err != nil {
		log.Fatalf("load booking targets: %v", err)
	}

	sessions, err := openSessions(ctx, pgPool, client, cfg)
	if err != nil {
		log.Fatalf("open sessions: %v", err)
	}

	log.Printf("loaded: %d sessions, %d booking targets", len(sessions), len(targets))

	sim := &Simulator{
		config:   cfg,
		sessions: sessions,
		targets:  targets,
		client:   client,
	}

	sim.Run()
	sim.PrintReport()

	if err := reportQuotaDrift(context.Background(), pgPool); err != nil {
		log.Fatalf("quota check: %v", err)
	}
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookRatio:    getFloat("SIM_BOOK_RATIO", 0.5),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		SessionLimit: getInt("SIM_SESSION_LIMIT", 200),
		Password:     getEnv("SIM_PASSWORD", "Pat@wellnest"),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	total := cfg.BookRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadTargets(ctx context.Context, pool *pgxpool.Pool) ([]bookingTarget, error) {
	rows, err := pool.Query(ctx, `
		SELECT doctor_id, id FROM services
	`)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	defer rows.Close()

	var targets []bookingTarget
	for rows.Next() {
		var t bookingTarget
		if err := rows.Scan(&t.DoctorID, &t.ServiceID); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no services found, run the seeder first")
	}
	return targets, nil
}

func openSessions(ctx context.Context, pool *pgxpool.Pool, client *http.Client, cfg SimConfig) ([]*session, error) {
	rows, err := pool.Query(ctx, `
		SELECT username FROM users WHERE role = 'patient' LIMIT $1
	`, cfg.SessionLimit)
	if err != nil {
		return nil, fmt.Errorf("load patient logins: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		usernames = append(usernames, u)
	}

	var sessions []*session
	for _, username := range usernames {
		token, err := login(ctx, client, cfg, username)
		if err != nil {
			log.Printf("login %s failed, skipping: %v", username, err)
			continue
		}
		sessions = append(sessions, &session{Token: token})
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no patient sessions could be opened")
	}
	return sessions, nil
}

func login(ctx context.Context, client *http.Client, cfg SimConfig, username string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": cfg.Password,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.APIBaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}
	if loginResp.Token == "" {
		return "", fmt.Errorf("empty token")
	}
	return loginResp.Token, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			sess := s.sessions[rng.Intn(len(s.sessions))]

			r := rng.Float64()
			switch {
			case r < s.config.BookRatio:
				s.doBook(ctx, rng, sess)
			case r < s.config.BookRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng, sess)
			default:
				s.doRead(ctx, sess)
			}
		}
	}
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand, sess *session) {
	target := s.targets[rng.Intn(len(s.targets))]
	at := time.Now().Add(time.Duration(1+rng.Intn(14*24)) * time.Hour).Truncate(time.Minute)

	body, _ := json.Marshal(map[string]any{
		"doctor_id":  target.DoctorID,
		"service_id": target.ServiceID,
		"at":         at,
	})

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			success = true
			var apptResp struct {
				ID int64 `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if json.Unmarshal(bodyBytes, &apptResp) == nil && apptResp.ID != 0 {
				sess.AddAppointment(apptResp.ID)
			}
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Book.Record(latency, success, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand, sess *session) {
	apptID, ok := sess.TakeRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "DELETE",
		fmt.Sprintf("%s/appointments/%d", s.config.APIBaseURL, apptID), nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK, http.StatusNoContent:
			success = true
		case http.StatusConflict:
			conflict = true
			sess.AddAppointment(apptID)
		}
	}

	s.metrics.Cancel.Record(latency, success, conflict)
}

func (s *Simulator) doRead(ctx context.Context, sess *session) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		s.config.APIBaseURL+"/me/appointments?limit=20", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Read.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Book", &s.metrics.Book)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("My appointments", &s.metrics.Read)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errors := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errors > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errors, float64(errors)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// reportQuotaDrift checks that after the run, every doctor's stored
// remaining still equals capacity minus open appointments.
func reportQuotaDrift(ctx context.Context, pool *pgxpool.Pool) error {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := pool.Query(checkCtx, `
		SELECT d.id, d.capacity, d.remaining, COUNT(a.id)
		FROM doctors d
		LEFT JOIN appointments a ON a.doctor_id = d.id AND a.completed = FALSE
		GROUP BY d.id, d.capacity, d.remaining
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	drifted := 0
	total := 0
	for rows.Next() {
		var id, capacity, remaining, booked int64
		if err := rows.Scan(&id, &capacity, &remaining, &booked); err != nil {
			return err
		}
		total++

		derived := capacity - booked
		if derived < 0 {
			derived = 0
		}
		if remaining != derived {
			drifted++
			log.Printf("quota drift: doctor=%d stored=%d derived=%d", id, remaining, derived)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if drifted > 0 {
		log.Printf("QUOTA CHECK FAILED: %d of %d doctors drifted", drifted, total)
	} else {
		log.Printf("quota check passed: %d doctors consistent", total)
	}
	return nil
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
