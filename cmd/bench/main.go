// Command bench drives a fixed number of concurrent JSON-protocol
// queries against a server and reports latency percentiles and
// throughput. Adapted from the teacher's cmd/bench to the JSON
// attribute-bag wire format: the query built and sent per request
// differs, the load-generation and percentile logic does not.
package main

import (
	"flag"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/fu-berlin/dnslab/internal/dnsmsg"
	"github.com/fu-berlin/dnslab/internal/helpers"
)

func main() {
	var (
		server           = flag.String("server", "127.0.0.1:53053", "server HOST:PORT")
		name             = flag.String("name", "fuberlin", "queried name")
		recursionDesired = flag.Bool("recursion-desired", false, "set the recursion-desired flag")
		concurrency      = flag.Int("concurrency", 50, "number of concurrent workers")
		requests         = flag.Int("requests", 2000, "total number of requests")
		timeout          = flag.Duration("timeout", 2*time.Second, "per-request timeout")
	)
	flag.Parse()

	req := dnsmsg.NewRequest(nil)
	req.SetReq(*name, false, recursionDesired)
	reqBytes := req.Build()

	conc := helpers.ClampInt(*concurrency, 1, 10000)
	total := helpers.ClampInt(*requests, 1, 10_000_000)
	per := total / conc
	rem := total % conc

	lat := make([]float64, 0, total)
	var latMu sync.Mutex

	t0 := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < conc; i++ {
		n := per
		if i < rem {
			n++
		}
		if n <= 0 {
			continue
		}
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			conn, err := net.Dial("udp", *server)
			if err != nil {
				return
			}
			defer conn.Close()

			buf := make([]byte, 65535)
			for j := 0; j < num; j++ {
				start := time.Now()
				_ = conn.SetDeadline(time.Now().Add(*timeout))
				if _, err := conn.Write(reqBytes); err != nil {
					continue
				}
				n, err := conn.Read(buf)
				if err != nil {
					continue
				}
				if _, err := dnsmsg.Parse(buf[:n]); err != nil {
					continue
				}
				ms := float64(time.Since(start).Microseconds()) / 1000.0
				latMu.Lock()
				lat = append(lat, ms)
				latMu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	elapsed := time.Since(t0).Seconds()

	if len(lat) == 0 {
		fmt.Printf("no successful requests\n")
		return
	}
	sort.Float64s(lat)
	p50 := percentile(lat, 50)
	p95 := percentile(lat, 95)
	p99 := percentile(lat, 99)
	qps := float64(len(lat)) / elapsed

	fmt.Printf("server=%s name=%q concurrency=%d requests=%d\n", *server, *name, conc, len(lat))
	fmt.Printf("elapsed_s=%.3f qps=%.1f\n", elapsed, qps)
	fmt.Printf("latency_ms p50=%.3f p95=%.3f p99=%.3f min=%.3f max=%.3f\n", p50, p95, p99, lat[0], lat[len(lat)-1])
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(float64(len(sorted))*float64(p)/100.0) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
