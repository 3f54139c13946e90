// Command remapgen converts an EASYMORE remap file into the remapping file
// read by mizuRoute.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/remapgen/internal/config"
	"github.com/banshee-data/remapgen/internal/csvtable"
	"github.com/banshee-data/remapgen/internal/dataset"
	"github.com/banshee-data/remapgen/internal/netcdf"
	"github.com/banshee-data/remapgen/internal/plotfreq"
	"github.com/banshee-data/remapgen/internal/remap"
	"github.com/banshee-data/remapgen/internal/security"
	"github.com/banshee-data/remapgen/internal/store"
	"github.com/banshee-data/remapgen/internal/version"
)

var (
	inPath       = flag.String("in", "", "EASYMORE remap file (.nc or .csv)")
	outPath      = flag.String("out", "", "mizuRoute remapping file to write (.nc)")
	configPath   = flag.String("config", "", "optional JSON config file")
	sqlitePath   = flag.String("sqlite", "", "also save the remapping to this SQLite database")
	histPath     = flag.String("hist", "", "write a histogram of RN_FR to this image (.png, .svg, .pdf)")
	checkWeights = flag.Bool("check-weights", false, "report per-subbasin weight sums")
	inspect      = flag.Bool("inspect", false, "print a summary of the -in remapping file and exit")
	showVersion  = flag.Bool("version", false, "print version and exit")
)

type options struct {
	in, out      string
	cfg          *config.RemapConfig
	sqlite       string
	hist         string
	checkWeights bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *inPath == "" {
		log.Fatal("-in is required")
	}
	if *inspect {
		if err := inspectFile(os.Stdout, *inPath); err != nil {
			log.Fatalf("inspect: %v", err)
		}
		return
	}
	if *outPath == "" {
		log.Fatal("-out is required")
	}

	cfg := &config.RemapConfig{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadRemapConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	opts := options{
		in:           *inPath,
		out:          *outPath,
		cfg:          cfg,
		sqlite:       *sqlitePath,
		hist:         *histPath,
		checkWeights: *checkWeights,
	}
	if err := run(os.Stdout, opts); err != nil {
		log.Fatalf("remapgen: %v", err)
	}
}

func run(w io.Writer, opts options) error {
	if err := security.ValidateInputPath(opts.in, ".nc", ".csv"); err != nil {
		return err
	}
	if err := security.ValidateOutputPath(opts.out, ".nc"); err != nil {
		return err
	}
	if err := security.CheckDistinct(opts.in, opts.out); err != nil {
		return err
	}

	tbl, err := readTable(opts.in)
	if err != nil {
		return err
	}

	ds, err := remap.Reshape(tbl, opts.cfg.ToOptions())
	if err != nil {
		return err
	}

	if err := writeNetCDF(opts.out, ds); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", opts.out)

	if opts.checkWeights {
		cl, err := remap.WeightClosure(ds, opts.cfg.GetWeightTolerance())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "weight sums per subbasin: min=%.6f max=%.6f mean=%.6f\n", cl.Min, cl.Max, cl.Mean)
		if len(cl.Outliers) > 0 {
			fmt.Fprintf(w, "%d subbasins with weight sum off by more than %g: %v\n",
				len(cl.Outliers), opts.cfg.GetWeightTolerance(), head(cl.Outliers, 20))
		}
	}

	if opts.hist != "" {
		if err := plotfreq.SaveHistogram(ds, opts.hist, opts.cfg.GetHistogramBins()); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", opts.hist)
	}

	if opts.sqlite != "" {
		s, err := store.Open(opts.sqlite)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer s.Close()
		runID, err := s.Save(ds, opts.in)
		if err != nil {
			return fmt.Errorf("save sqlite: %w", err)
		}
		fmt.Fprintf(w, "saved run %s to %s\n", runID, opts.sqlite)
	}
	return nil
}

func readTable(path string) (*remap.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvtable.Read(f)
	default:
		return netcdf.ReadTable(f)
	}
}

// writeNetCDF writes ds to a temporary file next to path and renames it into
// place, so a failed write never leaves a partial file at path.
func writeNetCDF(path string, ds *dataset.Dataset) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := netcdf.Write(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func inspectFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ds, err := netcdf.ReadDataset(f)
	if err != nil {
		return err
	}
	for _, d := range ds.Dims {
		fmt.Fprintf(w, "dim %s = %d\n", d.Name, d.Len)
	}
	for _, v := range ds.Vars {
		ln, _ := v.Attrs.Get("long_name")
		fmt.Fprintf(w, "var %s(%s) %s\n", v.Name, strings.Join(v.Dims, ","), ln)
	}
	for _, a := range ds.Attrs {
		fmt.Fprintf(w, ":%s = %q\n", a.Name, a.Value)
	}
	return nil
}

func head(v []int64, n int) []int64 {
	if len(v) > n {
		return v[:n]
	}
	return v
}
