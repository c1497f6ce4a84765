// Command gridflow is a small CLI driver around the gridflow library: it
// converts workbooks to CSV and reports sheet/workbook metadata. It is an
// external collaborator around the library, not part of the hard core (spec
// §3 Non-goals).
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nortwall/gridflow"
	"github.com/nortwall/gridflow/xlslegacy"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	exitOK       = 0
	exitUserErr  = 1
	exitIOErr    = 2
	exitInternal = 3
)

// config is loaded from .gridflow.yml in the working directory, if present,
// and lets a user pin default CSV formatting without repeating flags.
type config struct {
	Delimiter string `yaml:"delimiter"`
	Header    bool   `yaml:"header"`
}

var log = logrus.New()

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return exitUserErr
	}

	cfg := loadConfig(".gridflow.yml")

	switch args[0] {
	case "to-csv":
		return cmdToCSV(args[1:], cfg)
	case "info":
		return cmdInfo(args[1:])
	case "sheets":
		return cmdSheets(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		return exitUserErr
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gridflow <to-csv|info|sheets> <file> [flags]")
}

func loadConfig(path string) config {
	cfg := config{Delimiter: ",", Header: true}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.WithError(err).Warn("ignoring malformed .gridflow.yml")
	}
	return cfg
}

func cmdToCSV(args []string, cfg config) int {
	fs := flag.NewFlagSet("to-csv", flag.ContinueOnError)
	calc := fs.Bool("c", false, "calculate formulas before export")
	out := fs.String("o", "", "output path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return exitUserErr
	}
	if fs.NArg() < 1 {
		usage()
		return exitUserErr
	}
	path := fs.Arg(0)

	wb, err := openWorkbook(path)
	if err != nil {
		log.WithError(err).Error("failed to open workbook")
		return classifyError(err)
	}
	if *calc {
		if err := wb.Calculate(); err != nil {
			log.WithError(err).Error("calculation failed")
			return classifyError(err)
		}
	}
	sheet, err := wb.Worksheet(0)
	if err != nil {
		log.WithError(err).Error("failed to select sheet")
		return classifyError(err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.WithError(err).Error("failed to create output file")
			return exitIOErr
		}
		defer f.Close()
		w = f
	}

	writeOpts := gridflow.DefaultCSVWriteOptions
	if cfg.Delimiter != "" {
		writeOpts.Delimiter = rune(cfg.Delimiter[0])
	}
	if err := gridflow.WriteCSV(sheet, w, writeOpts); err != nil {
		log.WithError(err).Error("failed to write CSV")
		return classifyError(err)
	}
	return exitOK
}

func cmdInfo(args []string) int {
	if len(args) < 1 {
		usage()
		return exitUserErr
	}
	wb, err := openWorkbook(args[0])
	if err != nil {
		log.WithError(err).Error("failed to open workbook")
		return classifyError(err)
	}
	fmt.Printf("sheets: %d\n", wb.SheetCount())
	fmt.Printf("strings: %d\n", wb.Strings.Len())
	fmt.Printf("styles: %d\n", wb.Styles.Len())
	return exitOK
}

func cmdSheets(args []string) int {
	if len(args) < 1 {
		usage()
		return exitUserErr
	}
	wb, err := openWorkbook(args[0])
	if err != nil {
		log.WithError(err).Error("failed to open workbook")
		return classifyError(err)
	}
	for i, name := range wb.SheetNames() {
		fmt.Printf("%d: %s\n", i, name)
	}
	return exitOK
}

func openWorkbook(path string) (*gridflow.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".xlsx":
		return gridflow.LoadBytes(data, gridflow.FormatXLSX)
	case ".csv":
		return gridflow.LoadBytes(data, gridflow.FormatCSV)
	case ".xls":
		if err := xlslegacy.Sniff(bytes.NewReader(data)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%q does not look like a BIFF8 .xls file either", path)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func classifyError(err error) int {
	if _, ok := err.(*os.PathError); ok {
		return exitIOErr
	}
	var gerr *gridflow.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case gridflow.ErrIO:
			return exitIOErr
		case gridflow.ErrInvalidArgument, gridflow.ErrInvalidReference, gridflow.ErrInvalidFormat, gridflow.ErrOutOfBounds:
			return exitUserErr
		default:
			return exitInternal
		}
	}
	return exitInternal
}
