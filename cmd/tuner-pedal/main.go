package main

/*------------------------------------------------------------------
 *
 * Purpose:	GPIO footswitch front end: a momentary switch cycles the
 *		detection algorithm, and an LED toggles once a second as a
 *		heartbeat, for hands-free use on a pedalboard.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"github.com/warthog618/go-gpiocdev"

	"github.com/kcaudio/pitchtune/src"
)

const internalRate = 16000

func main() {
	chip := pflag.StringP("chip", "c", "/dev/gpiochip0", "GPIO character device.")
	switchLine := pflag.IntP("switch-line", "s", 17, "GPIO line for the footswitch (active low).")
	ledLine := pflag.IntP("led-line", "L", 27, "GPIO line for the heartbeat LED.")
	algo := pflag.StringP("algorithm", "g", "yin", "Initial detection algorithm.")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	cfg := pitchtune.DefaultConfig(pitchtune.Algorithm(*algo), internalRate)
	order := []pitchtune.Algorithm{pitchtune.AlgorithmYIN, pitchtune.AlgorithmMPM, pitchtune.AlgorithmPYIN, pitchtune.AlgorithmBaseline}
	idx := 0
	for i, a := range order {
		if a == cfg.Algorithm {
			idx = i
		}
	}

	engine, err := pitchtune.NewEngine(cfg)
	if err != nil {
		pitchtune.Logger.Fatal("engine init failed", "error", err)
	}

	led, err := gpiocdev.RequestLine(*chip, *ledLine, gpiocdev.AsOutput(0))
	if err != nil {
		pitchtune.Logger.Fatal("led line request failed", "error", err)
	}
	defer led.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sw, err := gpiocdev.RequestLine(*chip, *switchLine,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type != gpiocdev.LineEventFallingEdge {
				return // only act on the press, not the release
			}
			idx = (idx + 1) % len(order)
			cfg.Algorithm = order[idx]
			next, err := pitchtune.NewEngine(cfg)
			if err != nil {
				pitchtune.Logger.Error("algorithm switch failed", "error", err)
				return
			}
			engine = next
			pitchtune.Logger.Info("switched algorithm", "algorithm", cfg.Algorithm, "frame-size", engine.FrameSize())
		}),
	)
	if err != nil {
		pitchtune.Logger.Fatal("switch line request failed", "error", err)
	}
	defer sw.Close()

	fmt.Printf("footswitch pedal armed (frame size %d); press the switch to cycle algorithms, Ctrl-C to exit.\n", engine.FrameSize())

	// Heartbeat blink so the user can tell the pedal is alive even
	// with no footswitch presses yet.
	on := false
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			led.SetValue(0)
			return
		case <-ticker.C:
			on = !on
			v := 0
			if on {
				v = 1
			}
			led.SetValue(v)
		}
	}
}
