package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"bidindex/pkg/common"
	"bidindex/pkg/config"
	"bidindex/pkg/core"
	"bidindex/pkg/logging"
	"bidindex/pkg/present"
	"bidindex/pkg/source"

	"github.com/joho/godotenv"
)

const Prompt = "Enter choice: "

func main() {
	configPath := flag.String("config", "", "path to YAML config (default: configs/bidindex.yaml)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config file] [csvPath [bidKey]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// menu output goes to stdout, logs stay out of its way
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	switch args := flag.Args(); len(args) {
	case 0:
	case 1:
		cfg.Source.CSVPath = args[0]
	default:
		cfg.Source.CSVPath = args[0]
		cfg.Source.DefaultKey = args[1]
	}

	m := newMenu(core.NewSession(cfg), cfg, os.Stdin, os.Stdout)
	m.run(context.Background())
}

type menu struct {
	session *core.Session
	cfg     *config.Config
	in      *bufio.Scanner
	out     io.Writer
}

func newMenu(session *core.Session, cfg *config.Config, in io.Reader, out io.Writer) *menu {
	return &menu{
		session: session,
		cfg:     cfg,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

func (m *menu) run(ctx context.Context) {
	for {
		m.printMenu()
		fmt.Fprint(m.out, Prompt)
		if !m.in.Scan() {
			break
		}

		switch strings.TrimSpace(m.in.Text()) {
		case "1":
			m.handleLoad(ctx)
		case "2":
			m.handleDisplay(common.InOrder)
		case "3":
			m.handleFind()
		case "4":
			m.handleRemove()
		case "5":
			m.handleDisplay(common.PreOrder)
		case "6":
			m.handleDisplay(common.PostOrder)
		case "7":
			m.handleSetKey()
		case "8":
			m.handleStats()
		case "9":
			m.session.Reset()
			fmt.Fprintln(m.out, "Good bye.")
			return
		case "":
		default:
			fmt.Fprintln(m.out, "Unknown choice.")
		}
	}
	m.session.Reset()
}

func (m *menu) printMenu() {
	fmt.Fprint(m.out, `Menu:
  1. Load Bids
  2. Display All Bids
  3. Find Bid
  4. Remove Bid
  5. Display Pre-order
  6. Display Post-order
  7. Set Bid Key
  8. Stats
  9. Exit
`)
}

func (m *menu) handleLoad(ctx context.Context) {
	path := m.cfg.Source.CSVPath
	fmt.Fprintf(m.out, "Loading CSV file %s\n", path)

	policy, err := common.ParsePolicy(m.cfg.Source.DuplicatePolicy)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %v\n", err)
		return
	}
	src, err := source.Open(path, m.cfg.Source.CurrencySymbol)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %v\n", err)
		return
	}
	defer src.Close()

	res, err := m.session.Load(ctx, src, policy)
	if err != nil {
		fmt.Fprintf(m.out, "Error: %v\n", err)
	}
	fmt.Fprintf(m.out, "%d bids read", res.Inserted)
	if res.Duplicates+res.Replaced+res.Skipped > 0 {
		fmt.Fprintf(m.out, " (%d duplicates, %d replaced, %d skipped)", res.Duplicates, res.Replaced, res.Skipped)
	}
	fmt.Fprintln(m.out)
	m.printElapsed(res.Elapsed)
}

func (m *menu) handleDisplay(order common.Order) {
	start := time.Now()
	n, err := m.session.Dump(order, present.NewText(m.out))
	if err != nil {
		fmt.Fprintf(m.out, "Error: %v\n", err)
		return
	}
	if n == 0 {
		fmt.Fprintln(m.out, "No bids loaded.")
	}
	m.printElapsed(time.Since(start))
}

func (m *menu) handleFind() {
	key := m.session.DefaultKey()
	start := time.Now()
	rec, found := m.session.FindDefault()
	elapsed := time.Since(start)

	if found {
		fmt.Fprintln(m.out, rec.String())
	} else {
		fmt.Fprintf(m.out, "Bid Id %s not found.\n", key)
	}
	m.printElapsed(elapsed)
}

func (m *menu) handleRemove() {
	key := m.session.DefaultKey()
	if m.session.RemoveDefault() {
		fmt.Fprintf(m.out, "Bid Id %s removed.\n", key)
	} else {
		fmt.Fprintf(m.out, "Bid Id %s not found.\n", key)
	}
}

func (m *menu) handleSetKey() {
	fmt.Fprint(m.out, "Enter bid id: ")
	if !m.in.Scan() {
		return
	}
	key := strings.TrimSpace(m.in.Text())
	if key == "" {
		fmt.Fprintln(m.out, "Bid id unchanged.")
		return
	}
	m.session.SetDefaultKey(key)
	fmt.Fprintf(m.out, "Bid key set to %s\n", key)
}

func (m *menu) handleStats() {
	st := m.session.Stats()
	fmt.Fprintf(m.out, "backend=%v records=%v searches=%v hits=%v\n",
		st["backend"], st["records"], st["searches"], st["hits"])
	if h, ok := st["height"]; ok {
		fmt.Fprintf(m.out, "height=%v\n", h)
	}
}

func (m *menu) printElapsed(d time.Duration) {
	fmt.Fprintf(m.out, "time: %d microseconds\n", d.Microseconds())
	fmt.Fprintf(m.out, "time: %f seconds\n", d.Seconds())
}
