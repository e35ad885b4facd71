// Package workspace manages the cached files of a processing run.
//
// Product files carry no marker of the window or the selection they were
// fetched for. Instead of guessing which cached file is still good, a
// change of the observation file or of the product selection moves the
// affected files into a timestamped folder below the products directory,
// and a fresh download starts clean.
package workspace

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SamGreenwood04/Ginan-UI/pkg/metadata"
	"github.com/SamGreenwood04/Ginan-UI/pkg/products"
)

// Archive reasons, they become part of the archive folder name.
const (
	ReasonManual          = "manual"
	ReasonRinexChange     = "rinex_change"
	ReasonSelectionChange = "ppp_selection_change"
)

// productPatterns name the cached files subject to archiving.
var productPatterns = []string{
	metadata.EOPName, // earth orientation parameters
	"BRDC*.rnx*",     // broadcast ephemerides
	"*.SP3",          // precise orbits
	"*.CLK",          // clock solutions
	"*.BIA",          // biases
	"*.ION",          // ionosphere products
	"*.TRO",          // troposphere products
}

// reusablePatterns name the files that only depend on the time window, a
// new product selection can reuse them.
var reusablePatterns = []string{
	metadata.EOPName,
	"BRDC*.rnx*",
}

// ArchiveProducts moves the product files in dir into a timestamped folder
// below dir/archived and returns its path. Patterns listed in exclude stay
// in place. When nothing matches, no folder is created and the returned
// path is empty.
func ArchiveProducts(dir, reason string, exclude ...string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			logrus.Warnf("products dir %s does not exist", dir)
			return "", nil
		}
		return "", err
	}

	patterns := make([]string, 0, len(productPatterns))
	for _, p := range productPatterns {
		if !containsPattern(exclude, p) {
			patterns = append(patterns, p)
		}
	}

	stamp := time.Now().Format("20060102_150405")
	target := filepath.Join(dir, "archived", reason+"_"+stamp)

	moved := 0
	for _, pattern := range patterns {
		files, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		for _, file := range files {
			fi, err := os.Stat(file)
			if err != nil || fi.IsDir() {
				continue
			}
			if moved == 0 {
				if err := os.MkdirAll(target, 0755); err != nil {
					return "", err
				}
			}
			if err := os.Rename(file, filepath.Join(target, filepath.Base(file))); err != nil {
				logrus.Warnf("could not archive %s: %v", filepath.Base(file), err)
				continue
			}
			moved++
		}
	}

	if moved == 0 {
		logrus.Debug("no product files to archive")
		return "", nil
	}
	logrus.Infof("archived %d product files to %s", moved, target)
	return target, nil
}

// ArchiveIfObservationChanged archives the cached products when the
// observation file driving the run has changed. The time window comes out
// of the observation file, so everything goes, ephemerides and earth
// orientation included. An empty last counts as changed: without a recorded
// previous file the cached products cannot be trusted to match.
func ArchiveIfObservationChanged(current, last, productsDir string) (string, error) {
	if last != "" {
		curAbs, err1 := filepath.Abs(current)
		lastAbs, err2 := filepath.Abs(last)
		if err1 == nil && err2 == nil && curAbs == lastAbs {
			logrus.Debug("observation file unchanged, keeping products")
			return "", nil
		}
	}
	logrus.Info("observation file changed, archiving old products")
	return ArchiveProducts(productsDir, ReasonRinexChange)
}

// ArchiveIfSelectionChanged archives the cached products when the product
// selection has changed. Broadcast ephemerides and the earth orientation
// file only depend on the time window and stay in place. An empty last
// counts as changed.
func ArchiveIfSelectionChanged(current, last products.Selection, productsDir string) (string, error) {
	if last != (products.Selection{}) {
		if current == last {
			logrus.Debug("product selection unchanged, keeping products")
			return "", nil
		}
		logrus.Infof("product selection changed from %s to %s", last, current)
	}
	return ArchiveProducts(productsDir, ReasonSelectionChange, reusablePatterns...)
}

// outputPatterns name the run results subject to archiving. Anything else
// in the output directory stays untouched.
var outputPatterns = []string{"*.pos", "*.POS", "*.log", "*.txt", "*.json"}

// ArchiveOutputs moves previous run results from the output directory into
// a timestamped folder below its archive subdirectory.
func ArchiveOutputs(outputDir string) (string, error) {
	if _, err := os.Stat(outputDir); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	stamp := time.Now().Format("20060102_150405")
	target := filepath.Join(outputDir, "archive", stamp)

	moved := 0
	for _, pattern := range outputPatterns {
		files, err := filepath.Glob(filepath.Join(outputDir, pattern))
		if err != nil {
			return "", err
		}
		for _, file := range files {
			fi, err := os.Stat(file)
			if err != nil || fi.IsDir() {
				continue
			}
			if moved == 0 {
				if err := os.MkdirAll(target, 0755); err != nil {
					return "", err
				}
			}
			if err := os.Rename(file, filepath.Join(target, filepath.Base(file))); err != nil {
				logrus.Warnf("could not archive output %s: %v", filepath.Base(file), err)
				continue
			}
			moved++
		}
	}

	if moved == 0 {
		return "", nil
	}
	logrus.Infof("archived %d previous output files to %s", moved, target)
	return target, nil
}

func containsPattern(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if pattern == p {
			return true
		}
	}
	return false
}
