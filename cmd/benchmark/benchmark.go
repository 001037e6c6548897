package main

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	avatarcache "github.com/lumenchat/avatar-cache"
)

// ================= BENCHMARK =================

func main() {
	fmt.Println("\n================ AVATAR CACHE LOAD BENCHMARK =================")

	// ---------------- Config ----------------
	const (
		capacity   = 100
		users      = 150 // more users than capacity, so eviction stays busy
		goroutines = 200
		opsPerG    = 5000
		readShare  = 90 // % of operations that are reads
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Users        :", users)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Read share   :", readShare, "%")
	fmt.Println("---------------------------------")

	log := logrus.New()
	log.SetOutput(io.Discard)

	c := avatarcache.New(avatarcache.Config{
		Capacity: capacity,
		TTL:      time.Minute,
		Logger:   log,
	})
	defer c.Close()

	// ---------------- Preload ----------------
	fmt.Println("Preloading cache...")
	ids := make([]string, users)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%d", i)
		c.Update(ids[i], fmt.Sprintf("https://cdn.example/%d.jpg", i))
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	var hits, misses atomic.Int64
	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for j := 0; j < opsPerG; j++ {
				id := ids[rng.Intn(len(ids))]
				if rng.Intn(100) < readShare {
					if _, ok := c.Get(id); ok {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
				} else {
					c.Update(id, fmt.Sprintf("https://cdn.example/%d.jpg", j))
				}
			}
		}(int64(g))
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	// ---------------- Results ----------------
	st := c.Stats()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Cache Hits       : %d\n", hits.Load())
	fmt.Printf("Cache Misses     : %d\n", misses.Load())
	fmt.Printf("Hit Ratio        : %.2f %%\n", 100*float64(hits.Load())/float64(hits.Load()+misses.Load()))
	fmt.Printf("Final Entries    : %d\n", st.TotalEntries)
	fmt.Println("=========================================")
}
