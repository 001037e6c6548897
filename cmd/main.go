package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	avatarcache "github.com/lumenchat/avatar-cache"
	"github.com/lumenchat/avatar-cache/config"
	"github.com/lumenchat/avatar-cache/lookup"
	"github.com/lumenchat/avatar-cache/metrics"
)

// ================= FAKE PROFILE SERVICE =================

// profileService is a tiny in-process stand-in for the real profile
// backend, so the demo exercises the full refresh data flow over HTTP.
type profileService struct {
	mu      sync.RWMutex
	avatars map[string]string
	version int
}

func newProfileService() *profileService {
	return &profileService{avatars: map[string]string{
		"alice": "https://cdn.example/alice-v1.jpg",
		"bob":   "https://cdn.example/bob-v1.jpg",
		"carol": "", // known to have no avatar
	}}
}

// bump simulates users changing their avatars server-side.
func (p *profileService) bump() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version++
	for id := range p.avatars {
		if p.avatars[id] != "" {
			p.avatars[id] = fmt.Sprintf("https://cdn.example/%s-v%d.jpg", id, p.version+1)
		}
	}
}

func (p *profileService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// GET /profiles/{id}/avatar
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "profiles" || parts[2] != "avatar" {
		http.NotFound(w, r)
		return
	}

	p.mu.RLock()
	url, ok := p.avatars[parts[1]]
	p.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"avatarUrl": url})
}

// serve binds a loopback listener and returns its base URL.
func (p *profileService) serve() (string, *http.Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: p}
	go srv.Serve(ln)
	return "http://" + ln.Addr().String(), srv, nil
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	// ---------------- Configuration ----------------
	path := "avatarcache.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}

	fmt.Println("CAPACITY         :", cfg.Cache.Capacity, "entries")
	fmt.Println("TTL              :", cfg.Cache.TTL.Std())
	fmt.Println("REFRESH INTERVAL :", cfg.Cache.RefreshInterval.Std())
	fmt.Println("REFRESH ENABLED  :", cfg.Cache.RefreshEnabled)

	// ---------------- Profile Service ----------------
	// A real deployment points lookup.endpoint at the profile backend;
	// without one the demo runs its own stand-in.
	profiles := newProfileService()
	baseURL := cfg.Lookup.Endpoint
	if baseURL == "" {
		var srv *http.Server
		baseURL, srv, err = profiles.serve()
		if err != nil {
			logrus.WithError(err).Fatal("starting fake profile service")
		}
		defer srv.Close()
	}
	fmt.Println("PROFILE SERVICE  :", baseURL)

	lk := lookup.NewHTTPLookup(baseURL)
	lk.Client.Timeout = cfg.Lookup.Timeout.Std()
	lk.Attempts = cfg.Lookup.Attempts

	// ---------------- Metrics ----------------
	sink := metrics.NewPrometheus(cfg.Metrics.Namespace)

	// ---------------- Cache ----------------
	cache := avatarcache.New(avatarcache.Config{
		Capacity:                 cfg.Cache.Capacity,
		TTL:                      cfg.Cache.TTL.Std(),
		Lookup:                   lk,
		RefreshInterval:          cfg.Cache.RefreshInterval.Std(),
		DisableBackgroundRefresh: !cfg.Cache.RefreshEnabled,
		Metrics:                  sink,
	})
	defer cache.Close()

	sink.RegisterEntryGauge(cfg.Metrics.Namespace, func() float64 {
		return float64(cache.Stats().TotalEntries)
	})
	if cfg.Metrics.Enabled {
		go http.ListenAndServe(cfg.Metrics.Listen, promhttp.Handler())
		fmt.Println("METRICS          : http://" + cfg.Metrics.Listen + "/metrics")
	}

	// ---------------- Subscriber ----------------
	updates, cancel := cache.Subscribe()
	defer cancel()
	go func() {
		for snap := range updates {
			fmt.Println("OBSERVER → snapshot with", len(snap), "entries")
		}
	}()

	// ====================================================
	fmt.Println("\n==================== 1) CACHE MISS ====================")
	v, ok := cache.Get("alice")
	fmt.Printf("CACHE  → GET alice = %q (cached=%v)\n", v, ok)

	// ====================================================
	fmt.Println("\n==================== 2) UPDATE + HIT ====================")
	cache.Update("alice", "https://cdn.example/alice-v1.jpg")
	v, ok = cache.Get("alice")
	fmt.Printf("CACHE  → GET alice = %q (cached=%v)\n", v, ok)

	// ====================================================
	fmt.Println("\n==================== 3) KNOWN NO AVATAR ====================")
	cache.Update("carol", "")
	v, ok = cache.Get("carol")
	fmt.Printf("CACHE  → GET carol = %q (cached=%v)\n", v, ok)

	// ====================================================
	fmt.Println("\n==================== 4) STALE READ ====================")
	profiles.bump() // avatars change server-side
	cache.Invalidate("alice")
	v, _ = cache.Get("alice")
	fmt.Println("CACHE  → GET alice after invalidate =", v, "(stale, refresh queued)")
	fmt.Println("CACHE  → refresh queue size =", cache.Stats().RefreshQueueSize)

	// ====================================================
	fmt.Println("\n==================== 5) BACKGROUND REFRESH ====================")
	cache.RefreshNow(ctx)
	v, _ = cache.Get("alice")
	fmt.Println("CACHE  → GET alice after refresh =", v)

	// ====================================================
	fmt.Println("\n==================== 6) EVICTION ====================")
	for i := 0; i < cfg.Cache.Capacity+20; i++ {
		cache.Update(fmt.Sprintf("user%d", i), fmt.Sprintf("https://cdn.example/%d.jpg", i))
	}
	st := cache.Stats()
	fmt.Println("CACHE  → entries after flood =", st.TotalEntries)

	// ====================================================
	fmt.Println("\n==================== 7) REFRESH GATE ====================")
	cache.SetBackgroundRefresh(false)
	cache.Invalidate("carol")
	fmt.Println("CACHE  → queue with gate off =", cache.Stats().RefreshQueueSize)
	cache.SetBackgroundRefresh(true)

	// ====================================================
	fmt.Println("\n==================== STATISTICS ====================")
	st = cache.Stats()
	fmt.Printf("ENTRIES        : %d\n", st.TotalEntries)
	fmt.Printf("EXPIRED        : %d\n", st.ExpiredEntries)
	fmt.Printf("TOTAL ACCESSES : %d\n", st.TotalAccessCount)
	fmt.Printf("REFRESH QUEUE  : %d\n", st.RefreshQueueSize)
	fmt.Printf("REFRESH GATE   : %v\n", st.BackgroundRefreshEnabled)

	// Give the observer goroutine a beat to drain its channel.
	time.Sleep(100 * time.Millisecond)

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	fmt.Println("SYSTEM → cache closed cleanly")
}
