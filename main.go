// Package main implements the main entry point for a Game Boy ROM
// disassembler.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/gbdisasm/internal/cli"
	"github.com/retroenv/gbdisasm/internal/config"
	"github.com/retroenv/gbdisasm/internal/disasm"
	"github.com/retroenv/gbdisasm/internal/options"
	"github.com/retroenv/gbdisasm/internal/rom"
	"github.com/retroenv/gbdisasm/internal/writer"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	opts, err := cli.ParseFlags()
	logger := config.CreateLogger(opts.Debug, opts.Quiet)

	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(logger, opts)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	printBanner(logger, opts)

	if err := run(logger, opts); err != nil {
		logger.Fatal("Disassembling failed", log.Err(err))
	}
}

// printBanner prints application version information
func printBanner(logger *log.Logger, opts options.Program) {
	if opts.Quiet {
		return
	}
	logger.Info("gbdisasm", log.String("version", buildinfo.Version(version, commit, date)))
}

func run(logger *log.Logger, opts options.Program) error {
	file, err := os.Open(opts.Input)
	if err != nil {
		return fmt.Errorf("opening ROM file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	img, err := rom.Load(file)
	if err != nil {
		return fmt.Errorf("loading ROM file: %w", err)
	}

	header := img.Header()
	checksum := "ok"
	if !header.ChecksumOK {
		checksum = "bad"
	}
	logger.Info("ROM loaded",
		log.String("title", header.Title),
		log.Int("banks", img.Banks()),
		log.String("checksum", checksum),
	)

	dis := disasm.New(logger, img)
	if err := setup(dis, opts); err != nil {
		return err
	}

	if err := writeListing(dis, opts); err != nil {
		return err
	}
	if opts.SaveProject != "" {
		if err := saveProject(dis, opts.SaveProject); err != nil {
			return err
		}
		logger.Info("Project saved", log.String("file", opts.SaveProject))
	}
	return nil
}

// setup seeds the database, either by replaying an existing project file
// or by analyzing the fresh ROM.
func setup(dis *disasm.Disassembler, opts options.Program) error {
	if opts.Project != "" {
		project, err := os.Open(opts.Project)
		if err != nil {
			return fmt.Errorf("opening project file: %w", err)
		}
		defer func() {
			_ = project.Close()
		}()
		if err := dis.Load(project); err != nil {
			return fmt.Errorf("replaying project file: %w", err)
		}
	} else {
		if err := dis.SetupNewROM(); err != nil {
			return err
		}
		if !opts.NoEmptyBanks {
			dis.DetectEmptyBanks()
		}
	}

	if !opts.NoIndex {
		dis.Index()
	}
	return nil
}

func writeListing(dis *disasm.Disassembler, opts options.Program) error {
	var out io.Writer = os.Stdout
	if opts.Output != "" {
		outFile, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			_ = outFile.Close()
		}()
		out = outFile
	}
	return writer.New(dis, out).Write()
}

func saveProject(dis *disasm.Disassembler, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating project file: %w", err)
	}
	if err := dis.Save(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
