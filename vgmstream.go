package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/go-audio/wav"
	"github.com/goinggo/workpool"
	"github.com/google/uuid"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

const vgmstreamHint = "Could not find VgmStream installed, Please install from here https://github.com/vgmstream/vgmstream/releases/latest/download/vgmstream-win.zip on your AudioExport folder. "

var (
	ErrVgmstreamMissing = errors.New("vgmstream not found")
	ErrInvalidWav       = errors.New("converter output is not a wav file")
)

// DefaultVgmstream is the converter shipped next to the exporter on
// Windows, and the vgmstream command line tool elsewhere.
func DefaultVgmstream() string {
	if runtime.GOOS == "windows" {
		return filepath.Join("vgmstream-win", "test.exe")
	}
	return "vgmstream-cli"
}

// Converter transcodes .wem files to .wav with vgmstream. With one worker
// Submit converts before returning; with more, conversions run on a pool.
type Converter struct {
	Executable string

	ctx  context.Context
	pool *workpool.WorkPool
	wg   sync.WaitGroup

	mu        sync.Mutex
	converted int
	failed    int
}

// NewConverter finds the executable, printing the install hint when it is
// missing.
func NewConverter(ctx context.Context, exe string, workers int) (*Converter, error) {
	if exe == "" {
		exe = DefaultVgmstream()
	}
	path, err := exec.LookPath(exe)
	if err != nil {
		fmt.Println(vgmstreamHint)
		return nil, errors.Wrapf(ErrVgmstreamMissing, "%v", exe)
	}
	c := &Converter{Executable: path, ctx: ctx}
	if workers > 1 {
		c.pool = workpool.New(workers, 1024)
	}
	return c, nil
}

type wavInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

func inspectWav(name string) (*wavInfo, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %v", name)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, errors.Wrapf(ErrInvalidWav, "%v", name)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %v", name)
	}

	info := &wavInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	if info.SampleRate > 0 && info.Channels > 0 {
		frames := len(buf.Data) / info.Channels
		info.Duration = time.Duration(frames) * time.Second / time.Duration(info.SampleRate)
	}
	return info, nil
}

// Convert runs vgmstream on wem and waits for it. The output goes to a
// temporary name and replaces output only once it checks out as a wav file.
func (c *Converter) Convert(ctx context.Context, wem, output string) error {
	tmp := filepath.Join(filepath.Dir(output), fmt.Sprintf(".%v.wav", uuid.NewString()))
	defer os.Remove(tmp)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Executable, "-o", tmp, wem)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	fmt.Println("Audio conversion finished.")
	if err != nil {
		return errors.Wrapf(err, "vgmstream %v, output %q", wem, bytes.TrimSpace(out.Bytes()))
	}

	info, err := inspectWav(tmp)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, output); err != nil {
		return errors.Wrapf(err, "rename to %v", output)
	}
	logger.Tf(ctx, "Convert %v ok, rate=%v, channels=%v, bits=%v, duration=%v",
		output, info.SampleRate, info.Channels, info.BitDepth, info.Duration)
	return nil
}

type conversion struct {
	c           *Converter
	wem, output string
}

func (j *conversion) DoWork(workRoutine int) {
	defer j.c.wg.Done()

	err := j.c.Convert(j.c.ctx, j.wem, j.output)
	if err != nil {
		logger.Ef(j.c.ctx, "Worker %v convert %v err %+v", workRoutine, j.wem, err)
	}

	j.c.mu.Lock()
	defer j.c.mu.Unlock()
	if err != nil {
		j.c.failed++
	} else {
		j.c.converted++
	}
}

// Submit converts wem, in the caller when there is one worker. A pool that
// is at capacity also runs the job in the caller.
func (c *Converter) Submit(wem, output string) {
	job := &conversion{c: c, wem: wem, output: output}
	c.wg.Add(1)
	if c.pool == nil {
		job.DoWork(0)
		return
	}
	if err := c.pool.PostWork("conversion", job); err != nil {
		job.DoWork(0)
	}
}

// Wait blocks until every submitted conversion is done and returns the
// number converted and failed. The pool is left running until exit, since
// its Shutdown traces to stdout.
func (c *Converter) Wait() (converted, failed int) {
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.converted, c.failed
}
