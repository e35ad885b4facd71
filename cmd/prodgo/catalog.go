package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/SamGreenwood04/Ginan-UI/pkg/cddis"
	"github.com/SamGreenwood04/Ginan-UI/pkg/config"
	"github.com/SamGreenwood04/Ginan-UI/pkg/products"
	"github.com/SamGreenwood04/Ginan-UI/pkg/rinex"
)

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "List the product files the archive offers for a window",
		Flags: append(windowFlags(),
			&cli.StringFlag{
				Name:  "csv",
				Usage: "write the records as CSV to `FILE`, - for stdout",
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			recs, _, _, err := buildCatalog(c, cfg, client)
			if err != nil {
				return err
			}

			if dst := c.String("csv"); dst != "" {
				return writeCSV(dst, recs)
			}
			for _, r := range recs {
				fmt.Println(r)
			}
			logrus.Infof("%d product files", len(recs))
			return nil
		},
	}
}

func coverageCommand() *cli.Command {
	return &cli.Command{
		Name:  "coverage",
		Usage: "Show which analysis centers cover a window, and where they fall short",
		Flags: windowFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			recs, start, end, err := buildCatalog(c, cfg, client)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("the archive offers no products for this window")
				return nil
			}

			for _, line := range products.Offerings(recs) {
				fmt.Println(line)
			}
			for _, g := range products.FindGaps(recs) {
				fmt.Printf("gap: %s %s %s misses %s to %s\n", g.Key.Provider, g.Key.SolutionType, g.Key.Format,
					g.From.Format(windowTimeFormat), g.To.Format(windowTimeFormat))
			}

			valid := products.ValidProviders(recs)
			if len(valid) == 0 {
				fmt.Printf("no analysis center covers %s to %s without gaps\n",
					start.Format(windowTimeFormat), end.Format(windowTimeFormat))
				return nil
			}
			fmt.Printf("gap-free from %s to %s: %s\n",
				start.Format(windowTimeFormat), end.Format(windowTimeFormat), strings.Join(valid, " "))
			return nil
		},
	}
}

func obsCommand() *cli.Command {
	return &cli.Command{
		Name:      "obs",
		Usage:     "Find daily observation files for a station",
		ArgsUsage: "<site>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "window start epoch, e.g. 2023-09-14_00:00:00",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "window end epoch",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("need one station identifier, e.g. ALIC00AUS", 1)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			start, err := parseEpoch(c, "start")
			if err != nil {
				return err
			}
			end, err := parseEpoch(c, "end")
			if err != nil {
				return err
			}

			files, err := client.QueryRinexFiles(c.Context, cddis.RinexQuery{
				API:   cfg.RinexAPI,
				Site:  c.Args().First(),
				Start: start,
				End:   end,
			})
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("no observation files found")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%s %10d %s\n", f.Start.Format("2006-01-02"), f.Size, f.Location)
			}
			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the header metadata of an observation file",
		ArgsUsage: "<rinex-file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("need one observation file", 1)
			}
			meta, err := rinex.ReadMeta(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("marker:        %s\n", meta.Marker)
			fmt.Printf("receiver:      %s\n", meta.ReceiverType)
			fmt.Printf("antenna:       %s\n", meta.AntennaType)
			fmt.Printf("antenna delta: %.4f %.4f %.4f\n", meta.AntennaDelta[0], meta.AntennaDelta[1], meta.AntennaDelta[2])
			fmt.Printf("systems:       %s\n", meta.Systems)
			fmt.Printf("interval:      %gs\n", meta.Interval)
			fmt.Printf("window:        %s to %s\n",
				meta.FirstObs.Format(windowTimeFormat), meta.LastObs.Format(windowTimeFormat))
			return nil
		},
	}
}

func buildCatalog(c *cli.Context, cfg config.Config, client *cddis.Client) ([]products.Record, time.Time, time.Time, error) {
	start, end, err := window(c)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	builder := products.Builder{Lister: client, Formats: cfg.Formats}
	recs, err := builder.Build(c.Context, start, end)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	return recs, start, end, nil
}

func writeCSV(dst string, recs []products.Record) error {
	if dst == "-" {
		return products.WriteCSV(os.Stdout, recs)
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := products.WriteCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
