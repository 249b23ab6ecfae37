package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"bidindex/pkg/client"
	"bidindex/pkg/common"
	"bidindex/pkg/core"
)

func main() {
	mode := flag.String("mode", "index", "index: compare backends in-process; protocol: HTTP vs TCP against a running server")
	n := flag.Int("n", 5000, "number of records per run")
	httpAddr := flag.String("http", "http://localhost:8080", "HTTP API base URL (protocol mode)")
	tcpAddr := flag.String("tcp", "localhost:9090", "TCP server address (protocol mode)")
	flag.Parse()

	switch *mode {
	case "index":
		runIndexBenchmark(*n)
	case "protocol":
		runProtocolBenchmark(*httpAddr, *tcpAddr, *n)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

type result struct {
	kind    core.Kind
	keys    string
	insert  time.Duration
	search  time.Duration
	remove  time.Duration
	height  int
	hasTree bool
}

func runIndexBenchmark(n int) {
	fmt.Printf("Index Backend Benchmark (N=%d)\n", n)
	fmt.Println("---------------------------------------------------")

	random := make([]string, n)
	sorted := make([]string, n)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		random[i] = fmt.Sprintf("%08d", r.Intn(100_000_000))
		sorted[i] = fmt.Sprintf("%08d", i)
	}

	var results []result
	for _, kind := range core.Kinds {
		results = append(results, measure(kind, "random", random))
		results = append(results, measure(kind, "sorted", sorted))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "backend\tkeys\tinsert\tsearch\tremove\theight")
	for _, res := range results {
		height := "-"
		if res.hasTree {
			height = fmt.Sprint(res.height)
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%v\t%v\t%s\n", res.kind, res.keys, res.insert, res.search, res.remove, height)
	}
	tw.Flush()
	fmt.Println("---------------------------------------------------")
	fmt.Println("Sorted keys turn the unbalanced BST into a linked list: height equals N.")
}

func measure(kind core.Kind, label string, ids []string) result {
	idx := core.NewIndex(kind, 32)
	res := result{kind: kind, keys: label}

	start := time.Now()
	for _, id := range ids {
		idx.Insert(common.Record{ID: id, Title: "bench", Amount: 1})
	}
	res.insert = time.Since(start)
	res.height, res.hasTree = core.Height(idx)

	start = time.Now()
	for _, id := range ids {
		if _, ok := idx.Search(id); !ok {
			log.Fatalf("%s: lost key %s", kind, id)
		}
	}
	res.search = time.Since(start)

	start = time.Now()
	for _, id := range ids {
		idx.Remove(id)
	}
	res.remove = time.Since(start)

	if idx.Len() != 0 {
		log.Fatalf("%s: %d records left after removing all", kind, idx.Len())
	}
	return res
}

func runProtocolBenchmark(httpAddr, tcpAddr string, n int) {
	fmt.Printf("Protocol Benchmark (N=%d)\n", n)
	fmt.Printf("  HTTP=%s  TCP=%s\n", httpAddr, tcpAddr)
	fmt.Println("---------------------------------------------------")

	fmt.Println(">> Starting HTTP Benchmark (JSON over HTTP 1.1)...")
	httpDuration := runHTTPBenchmark(httpAddr, n)
	fmt.Printf("   HTTP Time: %v | QPS: %.0f\n\n", httpDuration, float64(n)/httpDuration.Seconds())

	fmt.Println(">> Starting TCP Benchmark (Binary Protocol)...")
	tcpDuration := runTCPBenchmark(tcpAddr, n)
	fmt.Printf("   TCP  Time: %v | QPS: %.0f\n", tcpDuration, float64(n)/tcpDuration.Seconds())

	fmt.Println("---------------------------------------------------")
	fmt.Printf("TCP/HTTP speedup: %.2fx\n", httpDuration.Seconds()/tcpDuration.Seconds())
}

func runHTTPBenchmark(httpAddr string, n int) time.Duration {
	start := time.Now()
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 100,
		},
	}

	for i := 0; i < n; i++ {
		rec := common.Record{ID: fmt.Sprintf("http-%08d", i), Title: "bench_data", Fund: "Bench", Amount: float64(i)}
		jsonData, _ := json.Marshal(rec)

		resp, err := httpClient.Post(httpAddr+"/api/bids", "application/json", bytes.NewReader(jsonData))
		if err != nil {
			log.Fatalf("HTTP request failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	return time.Since(start)
}

func runTCPBenchmark(addr string, n int) time.Duration {
	start := time.Now()

	cli, err := client.Dial(addr)
	if err != nil {
		log.Fatalf("TCP connect failed: %v", err)
	}
	defer cli.Close()

	for i := 0; i < n; i++ {
		rec := common.Record{ID: fmt.Sprintf("tcp-%08d", i), Title: "bench_data", Fund: "Bench", Amount: float64(i)}
		if _, err := cli.Insert(rec); err != nil {
			log.Fatalf("TCP insert failed: %v", err)
		}
	}
	return time.Since(start)
}
