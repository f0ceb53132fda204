package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	upiseq "github.com/cbegin/upiseq-go"
	"github.com/cbegin/upiseq-go/internal/config"
	"github.com/cbegin/upiseq-go/internal/debug"
	"github.com/cbegin/upiseq-go/internal/midiout"
)

const defaultUPI = "E(3,8)"

func main() {
	var (
		upiInline    = flag.String("upi", "", "inline UPI pattern input")
		upiPath      = flag.String("file", "", "path to a UPI file")
		tempo        = flag.Float64("tempo", 120, "tempo in BPM")
		sampleRate   = flag.Float64("sample-rate", 48000, "simulated sample rate")
		blockSize    = flag.Int("block-size", 256, "samples per processing block")
		duration     = flag.Float64("duration", 0, "seconds to play (0 = until interrupted)")
		gate         = flag.Float64("gate", 1, "gate length in steps")
		autoLength   = flag.Bool("auto", false, "pick step rate from the pattern length")
		seed         = flag.Int64("seed", 1, "random seed for R() and lengthening")
		portName     = flag.String("port", "", "MIDI output port (substring match, empty = first)")
		listPorts    = flag.Bool("list-ports", false, "list MIDI output ports and exit")
		dryRun       = flag.Bool("dry", false, "print events instead of sending MIDI")
		triggerEvery = flag.Float64("trigger-every", 0, "seconds between automatic triggers (0 = never)")
		logPath      = flag.String("log", "", "debug log file path")
	)
	flag.Parse()

	if *listPorts {
		for _, name := range midiout.Ports() {
			fmt.Println(name)
		}
		return
	}

	upiText, err := resolveUPIInput(*upiPath, *upiInline)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *portName != "" {
		cfg.MIDI.PortName = *portName
	}

	opts := []upiseq.Option{
		upiseq.WithSeed(*seed),
		upiseq.WithGateSteps(*gate),
		upiseq.WithAutoLength(*autoLength),
	}
	if *logPath != "" {
		logger, err := debug.Open(*logPath)
		if err != nil {
			log.Fatal(err)
		}
		defer logger.Close()
		opts = append(opts, upiseq.WithLogger(logger))
	}

	ctrl := upiseq.New(opts...)
	if err := ctrl.SetUPI(upiText); err != nil {
		log.Fatal(err)
	}

	var out *midiout.Output
	if !*dryRun {
		out, err = midiout.Open(cfg.MIDI)
		if err != nil {
			log.Fatal(err)
		}
		defer out.Close()
		defer out.Silence()
		fmt.Printf("playing %q on %s\n", upiText, out.PortName())
	} else {
		fmt.Printf("playing %q (dry run)\n", upiText)
	}

	run(ctrl, out, *tempo, *sampleRate, *blockSize, *duration, *triggerEvery)
}

// run paces processing blocks in real time, forwarding events until
// the duration elapses or the process is interrupted.
func run(ctrl *upiseq.Controller, out *midiout.Output, tempo, sampleRate float64, blockSize int, duration, triggerEvery float64) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	blockDur := time.Duration(float64(blockSize) / sampleRate * float64(time.Second))
	ticker := time.NewTicker(blockDur)
	defer ticker.Stop()

	var (
		samplePos   int64
		nextTrigger = triggerEvery
	)
	for {
		select {
		case <-sig:
			fmt.Println("\nstopped")
			return
		case <-ticker.C:
		}

		elapsed := float64(samplePos) / sampleRate
		if duration > 0 && elapsed >= duration {
			return
		}
		if triggerEvery > 0 && elapsed >= nextTrigger {
			ctrl.Trigger()
			nextTrigger += triggerEvery
		}

		tr := upiseq.Transport{
			Playing:      true,
			TempoBPM:     tempo,
			SampleRate:   sampleRate,
			QuarterPos:   float64(samplePos) / sampleRate * tempo / 60,
			BlockSamples: blockSize,
		}
		for _, ev := range ctrl.ProcessBlock(tr) {
			if out != nil {
				if err := out.Send(ev); err != nil {
					log.Fatal(err)
				}
				continue
			}
			fmt.Printf("%9d  step %-4d %-7s accent=%v\n",
				samplePos+int64(ev.SampleOffset), ev.StepIndex, ev.Kind, ev.Accented)
		}
		samplePos += int64(blockSize)
	}
}

func resolveUPIInput(path, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return defaultUPI, nil
}
