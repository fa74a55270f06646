package main

/*------------------------------------------------------------------
 *
 * Purpose:	Quick command-line program for generating a synthetic
 *		test tone, for exercising the pipeline without a
 *		microphone.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/kcaudio/pitchtune/src"
	"github.com/spf13/pflag"
)

func main() {
	freq := pflag.Float64P("freq", "f", 440, "Tone frequency in Hz.")
	sampleRate := pflag.Float64P("sample-rate", "r", 44100, "Sample rate in Hz.")
	duration := pflag.Float64P("duration", "d", 2.0, "Duration in seconds.")
	waveform := pflag.StringP("waveform", "w", "sine", "Waveform: sine, square, or harmonic.")
	amplitude := pflag.Float64P("amplitude", "a", 0.8, "Peak amplitude, 0..1.")
	outPath := pflag.StringP("out", "o", "", "Output raw 16-bit PCM file. Defaults to stdout.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate a synthetic tone as raw signed 16-bit little-endian PCM.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	var wf pitchtune.Waveform
	switch *waveform {
	case "sine":
		wf = pitchtune.WaveformSine
	case "square":
		wf = pitchtune.WaveformSquare
	case "harmonic":
		wf = pitchtune.WaveformHarmonic
	default:
		fmt.Fprintf(os.Stderr, "unknown waveform %q\n", *waveform)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	gen := pitchtune.NewToneGenerator(*sampleRate, *freq, wf, *amplitude)
	n := int(math.Round(*duration * *sampleRate))
	const chunk = 4096
	buf := make([]float32, chunk)
	pcm := make([]byte, chunk*2)

	for n > 0 {
		c := chunk
		if c > n {
			c = n
		}
		gen.Generate(buf[:c])
		for i := 0; i < c; i++ {
			s := int16(buf[i] * 32767)
			binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
		}
		if _, err := out.Write(pcm[:c*2]); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		n -= c
	}
}
