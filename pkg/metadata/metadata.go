// Package metadata names the fixed auxiliary files a PPP run needs next to
// the orbit, clock and bias products.
//
// The set is deliberately closed. Files come from the IGS file server, from
// the Ginan example tables bucket and from the IERS data center, nothing
// else. Files served from a tables directory end up in the local tables
// subdirectory through the usual download routing.
package metadata

import "github.com/SamGreenwood04/Ginan-UI/pkg/download"

// EOPName is the file name of the earth orientation parameter file. It is
// the only auxiliary file that changes over time, everything else is
// effectively static.
const EOPName = "finals.data.iau2000.txt"

var urls = [...]string{
	"https://files.igs.org/pub/station/general/igs_satellite_metadata.snx",
	"https://files.igs.org/pub/station/general/igs20.atx",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/OLOAD_GO.BLQ.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/ALOAD_GO.BLQ.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/igrf14coeffs.txt.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/opoleloadcoefcmcor.txt.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/fes2014b_Cnm-Snm.dat.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/DE436.1950.2050.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/gpt_25.grd.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/bds_yaw_modes.snx.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/qzss_yaw_modes.snx.gz",
	"https://peanpod.s3.ap-southeast-2.amazonaws.com/aux/products/tables/sat_yaw_bias_rate.snx.gz",
	"https://datacenter.iers.org/data/latestVersion/finals.data.iau2000.txt",
}

// URLs returns the auxiliary file addresses.
func URLs() []string {
	out := make([]string, len(urls))
	copy(out, urls[:])
	return out
}

// Tasks returns one download task per auxiliary file. Files already on disk
// are skipped by the engine, a run never refetches what it has.
func Tasks() []download.Task {
	tasks := make([]download.Task, 0, len(urls))
	for _, u := range urls {
		tasks = append(tasks, download.Task{URL: u})
	}
	return tasks
}
