package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli"

	"hologram/internal/exif"
	"hologram/internal/filesystem"
	"hologram/internal/indexer"
	"hologram/internal/library"
	"hologram/internal/mediatypes"
	"hologram/internal/query"
)

var jsonFlag = cli.BoolFlag{
	Name:  "json",
	Usage: "print JSON instead of text",
}

// ScanCommand indexes a folder and summarises it.
var ScanCommand = cli.Command{
	Name:      "scan",
	Usage:     "Index a folder and print a summary",
	ArgsUsage: "FOLDER",
	Flags: []cli.Flag{
		jsonFlag,
		cli.BoolFlag{
			Name:  "list",
			Usage: "list every indexed photo",
		},
	},
	Action: scanAction,
}

// StatsCommand prints camera and lens counts for a folder.
var StatsCommand = cli.Command{
	Name:      "stats",
	Usage:     "Print aggregate statistics for a folder",
	ArgsUsage: "FOLDER",
	Flags:     []cli.Flag{jsonFlag},
	Action:    statsAction,
}

// FilterCommand prints the photos in a folder matching every given filter.
var FilterCommand = cli.Command{
	Name:      "filter",
	Usage:     "Index a folder and print the photos matching the filters",
	ArgsUsage: "FOLDER",
	Flags: append([]cli.Flag{jsonFlag},
		cli.StringFlag{Name: "camera-make", Usage: "exact camera make"},
		cli.StringFlag{Name: "camera-model", Usage: "exact camera model"},
		cli.StringFlag{Name: "lens", Usage: "exact lens model"},
		cli.StringFlag{Name: "type", Usage: "RAW or JPEG"},
		cli.StringFlag{Name: "iso", Usage: "inclusive ISO range, MIN:MAX"},
		cli.StringFlag{Name: "focal", Usage: "inclusive focal length range in mm, MIN:MAX"},
		cli.StringFlag{Name: "aperture", Usage: "inclusive f-number range, MIN:MAX"},
		cli.StringFlag{Name: "date", Usage: "inclusive capture date range, YYYY-MM-DD:YYYY-MM-DD or RFC 3339"},
	),
	Action: filterAction,
}

// ShowCommand prints the metadata of a single file without indexing.
var ShowCommand = cli.Command{
	Name:      "show",
	Usage:     "Print the EXIF metadata of one file",
	ArgsUsage: "FILE",
	Flags:     []cli.Flag{jsonFlag},
	Action:    showAction,
}

func scanAction(c *cli.Context) error {
	result, err := runScan(c)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, result.Photos)
	}

	printSummary(c.App.Writer, result)
	if c.Bool("list") {
		fmt.Fprintln(c.App.Writer)
		printPhotos(c.App.Writer, result.Photos)
	}
	return nil
}

func statsAction(c *cli.Context) error {
	result, err := runScan(c)
	if err != nil {
		return err
	}
	stats := query.Aggregate(result.Photos)
	if c.Bool("json") {
		return printJSON(c.App.Writer, stats)
	}
	printStats(c.App.Writer, stats)
	return nil
}

func filterAction(c *cli.Context) error {
	filter, err := filterFromFlags(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	result, err := runScan(c)
	if err != nil {
		return err
	}
	matched := query.Filter(result.Photos, filter)
	if c.Bool("json") {
		if matched == nil {
			matched = []library.Photo{}
		}
		return printJSON(c.App.Writer, matched)
	}
	printPhotos(c.App.Writer, matched)
	fmt.Fprintf(c.App.Writer, "\n%s of %d matched\n", english.Plural(len(matched), "photo", "photos"), len(result.Photos))
	return nil
}

func showAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.NewExitError("a file path is required", 2)
	}
	fileType := mediatypes.Classify(path)
	if !fileType.Indexable() {
		return cli.NewExitError(fmt.Sprintf("%s is not a RAW or JPEG file", path), 2)
	}

	data, err := exif.NewWithRetry(filesystem.DefaultRetryConfig()).Extract(path)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, data)
	}

	fmt.Fprintf(c.App.Writer, "%s (%s, %s)\n", filepath.Base(path), fileType, mediatypes.FormatName(path))
	printExif(c.App.Writer, data)
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, result *indexer.ScanResult) {
	var raw, jpeg int
	var size int64
	for _, p := range result.Photos {
		size += p.FileSize
		if p.FileType == library.FileTypeRaw {
			raw++
		} else {
			jpeg++
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Scanned %s in %s\n", result.Root, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(tw, "  Photos:\t%s (%d RAW, %d JPEG)\n", english.Plural(len(result.Photos), "photo", "photos"), raw, jpeg)
	fmt.Fprintf(tw, "  Pairs:\t%d\n", result.Stats.Pairs)
	fmt.Fprintf(tw, "  Size:\t%s\n", humanize.Bytes(uint64(size)))
	fmt.Fprintf(tw, "  Directories:\t%d\n", result.Stats.Directories)
	if result.Stats.Skipped > 0 || result.Stats.Errors > 0 {
		fmt.Fprintf(tw, "  Skipped:\t%d (%s)\n", result.Stats.Skipped, english.Plural(result.Stats.Errors, "error", "errors"))
	}
	tw.Flush()
}

func printPhotos(w io.Writer, photos []library.Photo) {
	byID := make(map[string]string, len(photos))
	for _, p := range photos {
		byID[p.ID] = p.FileName
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range photos {
		pair := ""
		if p.PairedWith != nil {
			pair = "<-> " + byID[*p.PairedWith]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.FilePath, p.Format, humanize.Bytes(uint64(p.FileSize)), pair)
	}
	tw.Flush()
}

type count struct {
	name string
	n    int
}

// sortedCounts orders by count, highest first, then by name.
func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for name, n := range m {
		out = append(out, count{name, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].name < out[j].name
	})
	return out
}

func printStats(w io.Writer, stats library.PhotoStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Photos:\t%d\n", stats.TotalPhotos)
	fmt.Fprintf(tw, "RAW:\t%d\n", stats.RawCount)
	fmt.Fprintf(tw, "JPEG:\t%d\n", stats.JpegCount)
	fmt.Fprintf(tw, "Pairs:\t%d\n", stats.PairedCount)

	for _, section := range []struct {
		title  string
		counts map[string]int
	}{
		{"Cameras", stats.Cameras},
		{"Lenses", stats.Lenses},
	} {
		if len(section.counts) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s:\t\n", section.title)
		for _, c := range sortedCounts(section.counts) {
			fmt.Fprintf(tw, "  %s\t%d\n", c.name, c.n)
		}
	}
	tw.Flush()
}

func printExif(w io.Writer, e library.ExifData) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		fmt.Fprintf(tw, "  %s:\t%s\n", label, value)
	}

	if e.CameraMake != nil {
		row("Make", *e.CameraMake)
	}
	if e.CameraModel != nil {
		row("Model", *e.CameraModel)
	}
	if e.LensModel != nil {
		row("Lens", *e.LensModel)
	}
	if e.FocalLength != nil {
		row("Focal length", fmt.Sprintf("%gmm", *e.FocalLength))
	}
	if e.Aperture != nil {
		row("Aperture", fmt.Sprintf("f/%g", *e.Aperture))
	}
	if e.ShutterSpeed != nil {
		row("Shutter", *e.ShutterSpeed+"s")
	}
	if e.ISO != nil {
		row("ISO", fmt.Sprintf("%d", *e.ISO))
	}
	if e.ExposureMode != nil {
		row("Exposure mode", *e.ExposureMode)
	}
	if e.Flash != nil {
		row("Flash", *e.Flash)
	}
	if e.WhiteBalance != nil {
		row("White balance", *e.WhiteBalance)
	}
	if e.DateTaken != nil {
		row("Taken", e.DateTaken.Format(time.RFC3339))
	}
	if e.Width != nil && e.Height != nil {
		row("Dimensions", fmt.Sprintf("%dx%d", *e.Width, *e.Height))
	}
	if e.Orientation != nil {
		row("Orientation", fmt.Sprintf("%d", *e.Orientation))
	}
	if e.IsEmpty() {
		row("EXIF", "none")
	}
	tw.Flush()
}
