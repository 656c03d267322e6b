// wwise-export - extracts Wwise media from Unreal Engine pak archives
// Saves the .wem payloads of the events in one package and converts them
// to .wav with vgmstream

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErwinsExpertise/go-wwise-export/locres"
	"github.com/ErwinsExpertise/go-wwise-export/provider"
	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ErwinsExpertise/go-wwise-export/usmap"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

type options struct {
	config    string
	output    string
	vgmstream string
	workers   int
	lang      string
	dumpJSON  bool
	noPause   bool
	verbose   bool
}

func main() {
	fmt.Println("wwise-export")
	fmt.Println("Exports Wwise audio from Unreal Engine archives")
	fmt.Println()

	var o options
	flag.StringVar(&o.config, "config", ConfigFileName, "Config file")
	flag.StringVar(&o.output, "out", DefaultOutput, "Output folder for .wem and .wav files")
	flag.StringVar(&o.vgmstream, "vgmstream", "", "vgmstream executable (default "+DefaultVgmstream()+")")
	flag.IntVar(&o.workers, "workers", 1, "Concurrent conversions")
	flag.StringVar(&o.lang, "lang", "en", "Localization culture")
	flag.BoolVar(&o.dumpJSON, "json", false, "Also dump the package exports as JSON")
	flag.BoolVar(&o.noPause, "no-pause", false, "Exit without waiting for Enter")
	flag.BoolVar(&o.verbose, "v", false, "Verbose parsing output")
	flag.Parse()

	ctx := logger.WithContext(context.Background())
	startTime := time.Now()

	err := run(ctx, &o)
	if err != nil {
		log.Printf("Error exporting audio: %+v\n", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Took %d seconds\n", int(elapsed.Seconds()))

	if !o.noPause {
		fmt.Println("Press Enter to exit...")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, o *options) error {
	config, err := LoadConfig(o.config)
	if err != nil {
		return err
	}
	key, err := config.Key()
	if err != nil {
		return err
	}
	lang, err := locres.ParseLanguage(o.lang)
	if err != nil {
		return errors.Wrapf(err, "-lang")
	}

	opts := provider.Options{Game: config.GameOverride, Debug: o.verbose}
	if config.MappingsPath != "" {
		if opts.Mappings, err = usmap.Load(config.MappingsPath); err != nil {
			return errors.Wrapf(err, "load mappings")
		}
	}

	p := provider.New(config.GameDirectory, opts)
	defer p.Close()
	if err := p.Initialize(ctx); err != nil {
		return err
	}
	if key != nil {
		if _, err := p.SubmitKey(ctx, ueio.Guid{}, key); err != nil {
			return err
		}
	}
	if _, err := p.LoadLocalization(ctx, lang); err != nil {
		return err
	}

	x := &Exporter{Provider: p, Output: o.output, DumpJSON: o.dumpJSON}
	if x.Converter, err = NewConverter(ctx, o.vgmstream, o.workers); err != nil {
		logger.Wf(ctx, "Skip conversion, err %+v", err)
	}
	return x.Run(ctx, config.ObjectPath)
}
