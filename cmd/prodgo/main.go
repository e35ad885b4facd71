// Command line tool for resolving and fetching the products a PPP run needs:
// precise orbits, clocks and biases from the CDDIS archive, daily broadcast
// ephemerides and the auxiliary model tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/SamGreenwood04/Ginan-UI/pkg/cddis"
	"github.com/SamGreenwood04/Ginan-UI/pkg/config"
	"github.com/SamGreenwood04/Ginan-UI/pkg/products"
	"github.com/SamGreenwood04/Ginan-UI/pkg/rinex"
	"github.com/SamGreenwood04/Ginan-UI/pkg/state"
)

const version = "0.1"

// windowTimeFormat is how epochs are given on the command line.
const windowTimeFormat = "2006-01-02_15:04:05"

func main() {
	app := &cli.App{
		Name:    "prodgo",
		Usage:   "resolve and download PPP correction products",
		Version: version,
		Description: `prodgo scans the product archive for the analysis centers covering an
observation window, downloads the selected products resumably and keeps
the products directory consistent between runs.

EXAMPLES:
   # What does the archive offer for a window?
   $ prodgo coverage --start 2023-09-14_00:00:00 --end 2023-09-15_23:59:30

   # Fetch orbits, clocks and biases for the window of an observation file
   $ prodgo get --rinex ALIC00AUS_R_20232570000_01D_30S_MO.rnx --provider COD

   # Fetch everything a processing run needs
   $ prodgo get --rinex site.rnx --brdc --tables`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file (default is $HOME/.prodgo.yaml)",
			},
			&cli.StringFlag{
				Name:    "loglevel",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "log level: debug, info, warn, error",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("loglevel"))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return initConfig(c.String("config"))
		},
		Commands: []*cli.Command{
			catalogCommand(),
			coverageCommand(),
			getCommand(),
			checkCommand(),
			obsCommand(),
			inspectCommand(),
			archiveCommand(),
			historyCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// initConfig reads in the config file and ENV variables if set.
func initConfig(cfgFile string) error {
	home, err := homedir.Dir()
	if err != nil {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.SetConfigName(".prodgo")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("archive.url", cddis.DefaultURL)
	viper.SetDefault("archive.username", "")
	viper.SetDefault("archive.password", "")
	viper.SetDefault("rinex.api", cddis.DefaultRinexAPI)
	viper.SetDefault("products.dir", "products")
	viper.SetDefault("products.formats", products.DefaultFormats)
	viper.SetDefault("products.providers", []string{})
	viper.SetDefault("outputs.dir", "outputs")
	viper.SetDefault("state.file", filepath.Join(home, ".prodgo.db"))
	viper.SetDefault("download.timeout", 30)
	viper.SetDefault("download.retries", 3)

	viper.AutomaticEnv()

	// If a config file is found, read it in. Otherwise write one holding the
	// defaults, the credential keys want filling in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if werr := viper.SafeWriteConfigAs(filepath.Join(home, ".prodgo.yaml")); werr != nil {
			logrus.Warnf("could not create config file: %v", werr)
		}
	}
	return nil
}

func loadConfig() (config.Config, error) {
	cfg := config.Config{
		ArchiveURL:  viper.GetString("archive.url"),
		Username:    viper.GetString("archive.username"),
		Password:    viper.GetString("archive.password"),
		RinexAPI:    viper.GetString("rinex.api"),
		ProductsDir: viper.GetString("products.dir"),
		OutputsDir:  viper.GetString("outputs.dir"),
		StateFile:   viper.GetString("state.file"),
		Formats:     viper.GetStringSlice("products.formats"),
		Providers:   viper.GetStringSlice("products.providers"),
		Timeout:     viper.GetInt("download.timeout"),
		Retries:     viper.GetInt("download.retries"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(cfg config.Config) (*cddis.Client, error) {
	return cddis.NewClient(cfg.ArchiveURL, cddis.Options{
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
		Retries:  cfg.Retries,
	})
}

// openState opens the run state store, nil when none is configured.
func openState(cfg config.Config) (*state.DB, error) {
	if cfg.StateFile == "" {
		return nil, nil
	}
	return state.Open(cfg.StateFile)
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "rinex",
			Aliases: []string{"r"},
			Usage:   "observation `FILE` providing the window",
		},
		&cli.StringFlag{
			Name:  "start",
			Usage: "window start epoch, e.g. 2023-09-14_00:00:00",
		},
		&cli.StringFlag{
			Name:  "end",
			Usage: "window end epoch",
		},
	}
}

// window determines the processing window, either from an observation file or
// from the --start/--end flags.
func window(c *cli.Context) (start, end time.Time, err error) {
	if path := c.String("rinex"); path != "" {
		meta, err := rinex.ReadMeta(path)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		logrus.Infof("%s: %s, %gs interval, %s to %s", filepath.Base(path), meta.Systems, meta.Interval,
			meta.FirstObs.Format(windowTimeFormat), meta.LastObs.Format(windowTimeFormat))
		return meta.FirstObs, meta.LastObs, nil
	}

	start, err = parseEpoch(c, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = parseEpoch(c, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("window ends before it starts")
	}
	return start, end, nil
}

func parseEpoch(c *cli.Context, name string) (time.Time, error) {
	v := c.String(name)
	if v == "" {
		return time.Time{}, fmt.Errorf("need either --rinex or --start and --end")
	}
	t, err := time.Parse(windowTimeFormat, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s epoch %q, expected e.g. 2023-09-14_00:00:00", name, v)
	}
	return t, nil
}
