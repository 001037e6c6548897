package avatarcache_test

import (
	"fmt"
	"testing"

	avatarcache "github.com/lumenchat/avatar-cache"
)

func newBenchmarkCache() *avatarcache.Cache {
	return avatarcache.New(avatarcache.Config{
		Capacity: 100000,
		Logger:   quietLogger(),
	})
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkCacheGetHit(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	c.Update("user", "https://cdn.example/user.jpg")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("user")
	}
}

func BenchmarkCacheGetMiss(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(fmt.Sprintf("miss-%d", i))
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkCacheParallelGet(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	for i := 0; i < 1000; i++ {
		c.Update(fmt.Sprintf("user-%d", i), fmt.Sprintf("https://cdn.example/%d.jpg", i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get("user-42")
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkCacheUpdate(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Update(fmt.Sprintf("user-%d", i), "https://cdn.example/a.jpg")
	}
}

//
// ================= BROADCAST BENCH =================
//

func BenchmarkUpdateWithSubscribers(b *testing.B) {
	c := newBenchmarkCache()
	defer c.Close()

	// Lagging subscribers must not slow the write path.
	for i := 0; i < 8; i++ {
		_, cancel := c.Subscribe()
		defer cancel()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Update("user", "https://cdn.example/user.jpg")
	}
}
