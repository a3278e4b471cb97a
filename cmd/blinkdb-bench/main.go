// Command blinkdb-bench is a small load generator for a running blinkdb
// server. It issues a fixed mix of commands over a connection pool and
// reports throughput, reusing radix as a RESP client the same way the
// original storage layer used it to talk to a real Redis server.
package main

import (
	"flag"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mediocregopher/radix/v3"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9001", "server address")
	conns := flag.Int("conns", 8, "connection pool size")
	duration := flag.Duration("duration", 5*time.Second, "how long to run")
	flag.Parse()

	pool, err := radix.NewPool("tcp", *addr, *conns)
	if err != nil {
		fmt.Println("connect:", err)
		return
	}
	defer pool.Close()

	var ops int64
	var wg sync.WaitGroup
	stop := time.After(*duration)
	done := make(chan struct{})

	for i := 0; i < *conns; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			var n int
			for {
				select {
				case <-done:
					return
				default:
				}
				key := "bench:" + strconv.Itoa(worker) + ":" + strconv.Itoa(n%1000)
				if n%2 == 0 {
					if err := pool.Do(radix.Cmd(nil, "SET", key, "v"+strconv.Itoa(n))); err != nil {
						fmt.Println("SET:", err)
						return
					}
				} else {
					var val string
					if err := pool.Do(radix.Cmd(&val, "GET", key)); err != nil {
						fmt.Println("GET:", err)
						return
					}
				}
				atomic.AddInt64(&ops, 1)
				n++
			}
		}(i)
	}

	<-stop
	close(done)
	wg.Wait()

	total := atomic.LoadInt64(&ops)
	fmt.Printf("%d ops in %s (%.0f ops/sec)\n", total, *duration, float64(total)/duration.Seconds())
}
