package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"bidindex/pkg/client"
	"bidindex/pkg/common"
)

func main() {
	addr := flag.String("addr", "localhost:9090", "bidindex TCP server address")
	flag.Parse()

	fmt.Println("Connecting to bidindex...")
	cli, err := client.Dial(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cli.Close()

	bids := []common.Record{
		{ID: "50", Title: "Oak table", Fund: "Enterprise", Amount: 125},
		{ID: "30", Title: "Office chair", Fund: "General Fund", Amount: 17.5},
		{ID: "70", Title: "Filing cabinet", Fund: "Enterprise", Amount: 40},
	}
	for _, b := range bids {
		start := time.Now()
		inserted, err := cli.Insert(b)
		if err != nil {
			log.Fatalf("Insert failed: %v", err)
		}
		fmt.Printf("Insert %s: new=%v (%v)\n", b.ID, inserted, time.Since(start))
	}

	fmt.Println("Searching for 30...")
	start := time.Now()
	rec, err := cli.Search("30")
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	fmt.Printf("Got %s (in %v)\n", rec, time.Since(start))

	for _, order := range []common.Order{common.InOrder, common.PreOrder, common.PostOrder} {
		recs, err := cli.Dump(order)
		if err != nil {
			log.Fatalf("Dump failed: %v", err)
		}
		fmt.Printf("%s:", order)
		for _, r := range recs {
			fmt.Printf(" %s", r.ID)
		}
		fmt.Println()
	}

	removed, err := cli.Remove("50")
	if err != nil {
		log.Fatalf("Remove failed: %v", err)
	}
	fmt.Printf("Removed 50: %v\n", removed)
}
