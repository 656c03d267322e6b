package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ErwinsExpertise/go-wwise-export/provider"
	"github.com/ErwinsExpertise/go-wwise-export/uasset"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

const (
	DefaultOutput = "MediaExports"

	eventDataClass = "AkAudioEventData"
)

// Exporter saves the media of the Wwise events in one package and hands
// each file to the converter.
type Exporter struct {
	Provider *provider.Provider
	Output   string

	// Converter is nil when vgmstream is not installed.
	Converter *Converter
	DumpJSON  bool

	events int
	saved  int
	failed int
}

// Run exports the media of every AkAudioEventData in the object's package.
func (x *Exporter) Run(ctx context.Context, objectPath string) error {
	exports, err := x.Provider.LoadObjectExports(ctx, objectPath)
	if err != nil {
		return errors.Wrapf(err, "load %v", objectPath)
	}
	if err := os.MkdirAll(x.Output, 0755); err != nil {
		return errors.Wrapf(err, "create %v", x.Output)
	}

	for _, e := range exports {
		if e.Class != eventDataClass {
			continue
		}
		x.events++
		if err := x.saveAudio(ctx, e); err != nil {
			return err
		}
	}
	if x.DumpJSON && len(exports) > 0 {
		if err := x.dump(ctx, exports[0].Package, exports); err != nil {
			return err
		}
	}

	var converted, failed int
	if x.Converter != nil {
		converted, failed = x.Converter.Wait()
	}
	fmt.Printf("Exported %d events: %d media saved, %d failed, %d converted, %d conversions failed\n",
		x.events, x.saved, x.failed, converted, failed)
	return nil
}

func decodeMedia(ref *uasset.ObjectRef) ([]byte, error) {
	media, err := ref.Resolve()
	if err != nil {
		return nil, err
	}
	asset, err := media.Object("CurrentMediaAssetData")
	if err != nil {
		return nil, err
	}
	format, data, err := asset.Decode()
	if err != nil {
		return nil, err
	}
	if data == nil || format == "" || asset.Package == nil {
		return nil, errors.Errorf("%v decoded %v bytes of format %q", asset.Name, len(data), format)
	}
	return data, nil
}

// packagePath maps a package under the output folder, never above it.
func (x *Exporter) packagePath(pkg string) string {
	return filepath.Join(x.Output, filepath.FromSlash(strings.TrimPrefix(path.Clean("/"+pkg), "/")))
}

// mediaPath names media by the owning package's path. Only the first media
// of an event keeps the bare package name.
func (x *Exporter) mediaPath(owner string, i int) string {
	if i > 0 {
		return fmt.Sprintf("%s_%d.wem", x.packagePath(owner), i)
	}
	return x.packagePath(owner) + ".wem"
}

func (x *Exporter) saveAudio(ctx context.Context, e *uasset.Export) error {
	eventName := e.OuterName()
	owner := e.Package.Name

	for i, ref := range e.ObjectArray("MediaList") {
		data, err := decodeMedia(ref)
		if err != nil {
			fmt.Printf("Error: Could not decode audio for %s_%d\n", eventName, i)
			logger.Wf(ctx, "Decode media %v of %v err %+v", ref, eventName, err)
			x.failed++
			continue
		}

		mediaFileName := eventName + ".wem"
		if i > 0 {
			mediaFileName = fmt.Sprintf("%s_%d.wem", eventName, i)
		}
		mediaFilePath := x.mediaPath(owner, i)
		if err := os.MkdirAll(filepath.Dir(mediaFilePath), 0755); err != nil {
			return errors.Wrapf(err, "create %v", filepath.Dir(mediaFilePath))
		}
		if err := os.WriteFile(mediaFilePath, data, 0644); err != nil {
			return errors.Wrapf(err, "write %v", mediaFilePath)
		}
		x.saved++
		fmt.Printf("Saved %s at %s!\n", mediaFileName, x.Output)

		if x.Converter != nil {
			x.Converter.Submit(mediaFilePath, strings.TrimSuffix(mediaFilePath, ".wem")+".wav")
		}
	}
	return nil
}

// dump writes every export of the package as indented JSON next to its
// media.
func (x *Exporter) dump(ctx context.Context, pkg *uasset.Package, exports []*uasset.Export) error {
	name := x.packagePath(pkg.Name) + ".json"
	b, err := json.MarshalIndent(exports, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %v", pkg.Name)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return errors.Wrapf(err, "create %v", filepath.Dir(name))
	}
	if err := os.WriteFile(name, b, 0644); err != nil {
		return errors.Wrapf(err, "write %v", name)
	}
	logger.Tf(ctx, "Dump %v exports of %v to %v", len(exports), pkg.Name, name)
	return nil
}
