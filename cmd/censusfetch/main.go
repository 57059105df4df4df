// Command censusfetch runs one census query from the command line and
// writes the result table to stdout or a file. It needs no database; the
// snapshot store is only wired into the server.
//
// Usage:
//
//	censusfetch -dataset dec_sf1_profile [-year 2010] [-for "state:*"] [-format csv] [-o out.csv]
//	censusfetch -list
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hjones20/os-data/internal/census"
	"github.com/hjones20/os-data/internal/core"
	_ "github.com/hjones20/os-data/internal/core/datasets" // Register all datasets
	"github.com/hjones20/os-data/internal/table"
)

func main() {
	var (
		list    = flag.Bool("list", false, "list registered datasets and exit")
		dataset = flag.String("dataset", "", "dataset key to query (see -list)")
		year    = flag.String("year", "", "dataset vintage (default: dataset's default)")
		geo     = flag.String("for", "", `geography predicate, e.g. "state:*" (default: dataset's default)`)
		format  = flag.String("format", "csv", "output format: csv, json, or parquet")
		out     = flag.String("o", "", "output file (default: stdout)")
		host    = flag.String("host", census.DefaultHost, "census API root")
		timeout = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()

	if *list {
		listDatasets()
		return
	}

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "censusfetch: -dataset is required (use -list for available keys)")
		os.Exit(2)
	}

	if err := run(*dataset, *year, *geo, *format, *out, *host, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "censusfetch: %v\n", err)
		os.Exit(1)
	}
}

func listDatasets() {
	for _, group := range core.Groups() {
		fmt.Println(group + ":")
		for _, def := range core.ByGroup(group) {
			fmt.Printf("  %-20s %s (%s, default year %s)\n",
				def.Key, def.Label, def.Path, def.DefaultYear)
		}
	}
}

func run(dataset, year, geo, format, out, host string, timeout time.Duration) error {
	service := core.NewService(census.NewClient(timeout), nil, host)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tbl, err := service.Query(ctx, dataset, year, geo)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return write(tbl, format, w)
}

func write(tbl *table.Table, format string, w io.Writer) error {
	switch format {
	case "csv":
		return tbl.WriteCSV(w)
	case "json":
		return tbl.WriteJSON(w)
	case "parquet":
		return tbl.WriteParquet(w)
	default:
		return fmt.Errorf("unsupported format %q, want csv, json, or parquet", format)
	}
}
