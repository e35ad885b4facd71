package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/SamGreenwood04/Ginan-UI/pkg/cddis"
	"github.com/SamGreenwood04/Ginan-UI/pkg/config"
	"github.com/SamGreenwood04/Ginan-UI/pkg/download"
	"github.com/SamGreenwood04/Ginan-UI/pkg/metadata"
	"github.com/SamGreenwood04/Ginan-UI/pkg/products"
	"github.com/SamGreenwood04/Ginan-UI/pkg/workspace"
)

func getCommand() *cli.Command {
	return &cli.Command{
		Name:  "get",
		Usage: "Resolve and download the products for a window",
		Flags: append(windowFlags(),
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "analysis center, e.g. COD",
			},
			&cli.StringFlag{
				Name:  "project",
				Usage: "project code, e.g. OPS",
			},
			&cli.StringFlag{
				Name:  "solution",
				Value: products.SolutionFinal,
				Usage: "solution type: FIN, RAP or ULT",
			},
			&cli.BoolFlag{
				Name:  "brdc",
				Usage: "also fetch daily broadcast ephemerides",
			},
			&cli.BoolFlag{
				Name:  "tables",
				Usage: "also fetch the auxiliary model tables",
			},
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "fetch files again even when they are already there",
			},
		),
		Action: runGet,
	}
}

func runGet(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	db, err := openState(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	start, end, err := window(c)
	if err != nil {
		return err
	}

	// A different observation file invalidates products cut to the old
	// window, move them aside before anything new lands.
	if path := c.String("rinex"); path != "" && db != nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		last, err := db.LastObservation(c.Context)
		if err != nil {
			return err
		}
		if dir, err := workspace.ArchiveIfObservationChanged(abs, last, cfg.ProductsDir); err != nil {
			return err
		} else if dir != "" {
			logrus.Infof("observation file changed, products archived into %s", dir)
		}
		if err := db.SetLastObservation(c.Context, abs); err != nil {
			return err
		}
	}

	builder := products.Builder{Lister: client, Formats: cfg.Formats}
	recs, err := builder.Build(c.Context, start, end)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return cli.Exit("the archive offers no products for this window", 1)
	}

	sel, err := chooseSelection(c, cfg, recs)
	if err != nil {
		return err
	}
	logrus.Infof("selected %s %s %s", sel.Provider, sel.Project, sel.SolutionType)

	if db != nil {
		last, err := db.LastSelection(c.Context)
		if err != nil {
			return err
		}
		if dir, err := workspace.ArchiveIfSelectionChanged(sel, last, cfg.ProductsDir); err != nil {
			return err
		} else if dir != "" {
			logrus.Infof("selection changed, products archived into %s", dir)
		}
		if err := db.SetLastSelection(c.Context, sel); err != nil {
			return err
		}
		if err := db.SetLastWindow(c.Context, start, end); err != nil {
			return err
		}
	}

	tasks, err := collectTasks(c, client, recs, sel)
	if err != nil {
		return err
	}
	if c.Bool("brdc") {
		for _, u := range client.BroadcastURLs(start, end) {
			tasks = append(tasks, download.Task{URL: u, Replace: c.Bool("replace")})
		}
	}
	if c.Bool("tables") {
		tasks = append(tasks, metadata.Tasks()...)
	}
	logrus.Infof("fetching %d files into %s", len(tasks), cfg.ProductsDir)

	engine := download.NewEngine(cfg.ProductsDir, client)
	engine.Retries = cfg.Retries
	events := make(chan download.Event, 16)
	engine.Events = events
	progressDone := make(chan struct{})
	go func() {
		printProgress(events)
		close(progressDone)
	}()

	results := engine.Fetch(c.Context, tasks)
	close(events)
	<-progressDone

	if db != nil {
		// The log is written even after a cancelled batch.
		if err := db.LogTransfers(context.Background(), results); err != nil {
			logrus.Warnf("could not record transfers: %v", err)
		}
	}
	return report(results)
}

// chooseSelection narrows the catalog to one analysis center. An explicit
// --provider wins, then the configured preference order, then the first
// center with gap-free coverage.
func chooseSelection(c *cli.Context, cfg config.Config, recs []products.Record) (products.Selection, error) {
	sel := products.Selection{
		Provider:     strings.ToUpper(c.String("provider")),
		Project:      strings.ToUpper(c.String("project")),
		SolutionType: strings.ToUpper(c.String("solution")),
	}
	if sel.Provider != "" {
		return sel, nil
	}

	valid := products.ValidProviders(recs)
	if len(valid) == 0 {
		return sel, fmt.Errorf("%w, see prodgo coverage", products.ErrNoProviders)
	}
	for _, pref := range cfg.Providers {
		for _, v := range valid {
			if v == pref {
				sel.Provider = pref
				return sel, nil
			}
		}
	}
	sel.Provider = valid[0]
	return sel, nil
}

func collectTasks(c *cli.Context, client *cddis.Client, recs []products.Record, sel products.Selection) ([]download.Task, error) {
	picked := products.Filter(recs, sel)
	if len(picked) == 0 {
		return nil, fmt.Errorf("no %s products of %s in the catalog", sel.SolutionType, sel.Provider)
	}

	tasks := make([]download.Task, 0, len(picked))
	for _, r := range picked {
		u, err := client.ProductURL(r)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, download.Task{URL: u, Replace: c.Bool("replace")})
	}
	return tasks, nil
}

// printProgress renders transfer progress, one line per file.
func printProgress(events <-chan download.Event) {
	current := ""
	for ev := range events {
		if ev.Filename != current && current != "" {
			fmt.Println()
		}
		current = ev.Filename
		fmt.Printf("\r%-50s %3d%%", ev.Filename, ev.Percent)
	}
	if current != "" {
		fmt.Println()
	}
}

func report(results []download.FileResult) error {
	var done, skipped, failed, cancelled int
	for _, res := range results {
		switch res.Status {
		case download.StatusDone:
			done++
		case download.StatusSkipped:
			skipped++
		case download.StatusFailed:
			failed++
			logrus.Errorf("%s: %v", res.Filename, res.Err)
		case download.StatusCancelled:
			cancelled++
		}
	}
	logrus.Infof("%d downloaded, %d already there, %d failed, %d cancelled", done, skipped, failed, cancelled)
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d transfers failed", failed, len(results)), 1)
	}
	if cancelled > 0 {
		return cli.Exit("cancelled", 1)
	}
	return nil
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify that the archive accepts the configured credentials",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			if err := client.Ping(c.Context); err != nil {
				return cli.Exit(fmt.Sprintf("archive not reachable: %v", err), 1)
			}
			fmt.Println("archive ok")
			return nil
		},
	}
}

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Move the current products or outputs aside",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "outputs",
				Usage: "rotate the outputs directory instead of the products",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var dir string
			if c.Bool("outputs") {
				dir, err = workspace.ArchiveOutputs(cfg.OutputsDir)
			} else {
				dir, err = workspace.ArchiveProducts(cfg.ProductsDir, workspace.ReasonManual)
			}
			if err != nil {
				return err
			}
			if dir == "" {
				fmt.Println("nothing to archive")
				return nil
			}
			fmt.Printf("archived into %s\n", dir)
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the most recent transfers",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   20,
				Usage:   "number of entries",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openState(cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return cli.Exit("no state file configured", 1)
			}
			defer db.Close()

			transfers, err := db.RecentTransfers(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, tr := range transfers {
				line := fmt.Sprintf("%s %-13s %10d %s",
					tr.StartedAt.Format("2006-01-02 15:04:05"), tr.Status, tr.Bytes, tr.Filename)
				if tr.Err != "" {
					line += "  (" + tr.Err + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
