package main

/*------------------------------------------------------------------
 *
 * Purpose:	Headless tuner server: capture audio, run the pitch
 *		pipeline, and publish estimates to up to
 *		pitchnet.MaxClients TCP clients, advertised on the
 *		local network via DNS-SD.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/signal"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/kcaudio/pitchtune/src"
	"github.com/kcaudio/pitchtune/src/pitchnet"
)

const internalRate = 16000

func main() {
	port := pflag.IntP("port", "p", 9001, "TCP port to serve pitch estimates on.")
	algo := pflag.StringP("algorithm", "g", "yin", "Detection algorithm: yin, mpm, pyin, or baseline.")
	serviceName := pflag.StringP("name", "n", "", "DNS-SD service name. Defaults to \"Tuner on <hostname>\".")
	noMDNS := pflag.Bool("no-mdns", false, "Disable DNS-SD advertisement.")
	fromStdin := pflag.Bool("stdin", false, "Read 16-bit signed little-endian PCM from stdin instead of a microphone.")
	stdinRate := pflag.IntP("stdin-sample-rate", "r", 44100, "Sample rate of the stdin PCM stream.")
	debug := pflag.BoolP("debug", "v", false, "Enable debug logging.")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}
	pitchtune.SetDebug(*debug)

	cfg := pitchtune.DefaultConfig(pitchtune.Algorithm(*algo), internalRate)
	engine, err := pitchtune.NewEngine(cfg)
	if err != nil {
		pitchtune.Logger.Fatal("engine init failed", "error", err)
	}
	framer, err := pitchtune.NewFramer(cfg.FrameSize)
	if err != nil {
		pitchtune.Logger.Fatal("framer init failed", "error", err)
	}
	agc, err := pitchtune.NewAGC(internalRate, 0.2, 0.01, 0.1, 20, 0.1)
	if err != nil {
		pitchtune.Logger.Fatal("agc init failed", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	server := pitchnet.NewServer(nil)
	if err := server.Listen(*port); err != nil {
		pitchtune.Logger.Fatal("pitchnet listen failed", "error", err)
	}
	defer server.Close()

	if !*noMDNS {
		go func() {
			if err := pitchnet.Announce(ctx, nil, *serviceName, *port); err != nil && ctx.Err() == nil {
				pitchtune.Logger.Error("dns-sd announce failed", "error", err)
			}
		}()
	}

	if *fromStdin {
		runStdin(ctx, *stdinRate, resamplerOrFatal(*stdinRate), agc, framer, engine, server, cfg.Algorithm)
		return
	}
	runMic(ctx, agc, framer, engine, server, cfg.Algorithm)
}

func resamplerOrFatal(deviceRate int) *pitchtune.Resampler {
	r, err := pitchtune.NewResampler(deviceRate, internalRate, pitchtune.DefaultKernelRadius)
	if err != nil {
		pitchtune.Logger.Fatal("resampler init failed", "error", err)
	}
	return r
}

func runStdin(ctx context.Context, deviceRate int, resampler *pitchtune.Resampler, agc *pitchtune.AGC, framer *pitchtune.Framer, engine pitchtune.Engine, server *pitchnet.Server, alg pitchtune.Algorithm) {
	const chunkSamples = 1024
	raw := make([]byte, chunkSamples*2)
	chunk := make([]float32, chunkSamples)

	for ctx.Err() == nil {
		n, err := io.ReadFull(os.Stdin, raw)
		if n == 0 {
			if err != nil && err != io.EOF {
				pitchtune.Logger.Error("stdin read error", "error", err)
			}
			return
		}
		samples := n / 2
		for i := 0; i < samples; i++ {
			s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
			chunk[i] = float32(s) / 32768
		}
		publishChunk(resampler.Process(chunk[:samples]), agc, framer, engine, server, alg)
	}
}

func runMic(ctx context.Context, agc *pitchtune.AGC, framer *pitchtune.Framer, engine pitchtune.Engine, server *pitchnet.Server, alg pitchtune.Algorithm) {
	if err := portaudio.Initialize(); err != nil {
		pitchtune.Logger.Fatal("portaudio init failed", "error", err)
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		pitchtune.Logger.Fatal("no default input device", "error", err)
	}
	deviceRate := int(math.Round(dev.DefaultSampleRate))
	resampler := resamplerOrFatal(deviceRate)

	const framesPerBuffer = 512
	in := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      dev.DefaultSampleRate,
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

	for ctx.Err() == nil {
		if err := stream.Read(); err != nil {
			pitchtune.Logger.Error("stream read error", "error", err)
			continue
		}
		publishChunk(resampler.Process(in), agc, framer, engine, server, alg)
	}
}

func publishChunk(resampled []float32, agc *pitchtune.AGC, framer *pitchtune.Framer, engine pitchtune.Engine, server *pitchnet.Server, alg pitchtune.Algorithm) {
	if len(resampled) == 0 {
		return
	}
	gained := agc.Process(resampled, true)
	frame, ready := framer.Push(gained)
	if !ready {
		return
	}
	hz, clarity := engine.FindPitch(frame)
	server.Publish(string(alg), hz, clarity)
}
