package main

/*------------------------------------------------------------------
 *
 * Purpose:	Live microphone tuner: capture audio, resample, run AGC,
 *		frame, and print pitch estimates to the terminal. The 'a'
 *		key cycles the detection algorithm without restarting
 *		capture.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/jochenvg/go-udev"
	"github.com/pkg/term"
	"github.com/spf13/pflag"

	"github.com/kcaudio/pitchtune/src"
)

const internalRate = 16000

func main() {
	device := pflag.StringP("device", "d", "", "Input device name substring to match. Empty uses the system default.")
	algo := pflag.StringP("algorithm", "g", "yin", "Detection algorithm: yin, mpm, pyin, or baseline.")
	logDir := pflag.StringP("log-dir", "l", "", "Directory for daily CSV pitch logs. Empty disables logging.")
	debug := pflag.BoolP("debug", "v", false, "Enable debug logging.")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}
	pitchtune.SetDebug(*debug)

	if err := portaudio.Initialize(); err != nil {
		pitchtune.Logger.Fatal("portaudio init failed", "error", err)
	}
	defer portaudio.Terminate()

	inputDevice, err := selectInputDevice(*device)
	if err != nil {
		pitchtune.Logger.Fatal("no suitable input device", "error", err)
	}
	pitchtune.Logger.Info("using input device", "name", inputDevice.Name)

	deviceRate := int(inputDevice.DefaultSampleRate)
	if deviceRate <= 0 {
		deviceRate = 44100
	}

	resampler, err := pitchtune.NewResampler(deviceRate, internalRate, pitchtune.DefaultKernelRadius)
	if err != nil {
		pitchtune.Logger.Fatal("resampler init failed", "error", err)
	}
	agc, err := pitchtune.NewAGC(internalRate, 0.2, 0.01, 0.1, 20, 0.1)
	if err != nil {
		pitchtune.Logger.Fatal("agc init failed", "error", err)
	}

	cfg := pitchtune.DefaultConfig(pitchtune.Algorithm(*algo), internalRate)
	engine, err := pitchtune.NewEngine(cfg)
	if err != nil {
		pitchtune.Logger.Fatal("engine init failed", "error", err)
	}
	framer, err := pitchtune.NewFramer(cfg.FrameSize)
	if err != nil {
		pitchtune.Logger.Fatal("framer init failed", "error", err)
	}

	plog, err := pitchtune.NewPitchLog(true, *logDir)
	if err != nil {
		pitchtune.Logger.Fatal("pitch log init failed", "error", err)
	}
	defer plog.Close()

	const framesPerBuffer = 512
	in := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inputDevice,
			Channels: 1,
			Latency:  inputDevice.DefaultLowInputLatency,
		},
		SampleRate:      inputDevice.DefaultSampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, in)
	if err != nil {
		pitchtune.Logger.Fatal("open stream failed", "error", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		pitchtune.Logger.Fatal("start stream failed", "error", err)
	}
	defer stream.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go watchHotplug(ctx)
	go watchAlgorithmKey(ctx, cfg, &engine)

	for ctx.Err() == nil {
		if err := stream.Read(); err != nil {
			pitchtune.Logger.Error("stream read error", "error", err)
			continue
		}
		resampled := resampler.Process(in)
		if len(resampled) == 0 {
			continue
		}
		gained := agc.Process(resampled, true)
		frame, ready := framer.Push(gained)
		if !ready {
			continue
		}
		hz, clarity := engine.FindPitch(frame)
		if hz > 0 {
			fmt.Printf("\r%7.2f Hz  clarity %.2f   ", hz, clarity)
		}
		if err := plog.Write(cfg.Algorithm, hz, clarity); err != nil {
			pitchtune.Logger.Error("pitch log write failed", "error", err)
		}
	}
	fmt.Println()
}

func selectInputDevice(substr string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if substr == "" {
		def, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, err
		}
		return def, nil
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(substr)) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", substr)
}

// watchHotplug logs USB audio device arrivals/removals via udev so a
// user can tell when their microphone was unplugged mid-session; it
// does not attempt to hot-swap the open stream.
func watchHotplug(ctx context.Context) {
	u := udev.Udev{}
	monitor := u.NewMonitorFromNetlink("udev")
	if err := monitor.FilterAddMatchSubsystem("sound"); err != nil {
		pitchtune.Logger.Error("udev filter failed", "error", err)
		return
	}
	ch, errCh, err := monitor.DeviceChan(ctx)
	if err != nil {
		pitchtune.Logger.Error("udev monitor failed", "error", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case dev := <-ch:
			pitchtune.Logger.Info("audio device event", "action", dev.Action(), "sysname", dev.Sysname())
		case err := <-errCh:
			if err != nil {
				pitchtune.Logger.Error("udev monitor error", "error", err)
			}
		}
	}
}

// watchAlgorithmKey reads raw keypresses from the controlling
// terminal and cycles the algorithm on 'a', same raw-mode-open idiom
// as the teacher's serial_port_open, applied to the controlling tty
// instead of a modem device.
func watchAlgorithmKey(ctx context.Context, cfg pitchtune.Config, engine *pitchtune.Engine) {
	t, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		pitchtune.Logger.Warn("could not open controlling tty for key input", "error", err)
		return
	}
	defer t.Restore()
	defer t.Close()

	order := []pitchtune.Algorithm{pitchtune.AlgorithmYIN, pitchtune.AlgorithmMPM, pitchtune.AlgorithmPYIN, pitchtune.AlgorithmBaseline}
	idx := 0
	for i, a := range order {
		if a == cfg.Algorithm {
			idx = i
		}
	}

	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := t.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		if buf[0] != 'a' {
			continue
		}
		idx = (idx + 1) % len(order)
		cfg.Algorithm = order[idx]
		next, err := pitchtune.NewEngine(cfg)
		if err != nil {
			pitchtune.Logger.Error("algorithm switch failed", "error", err)
			continue
		}
		*engine = next
		pitchtune.Logger.Info("switched algorithm", "algorithm", cfg.Algorithm)
	}
}
