// Command triggerd runs the clip-launching trigger engine: it opens an
// audio device, binds an optional MIDI controller, loads the configured
// slot bank, and drops into a line-oriented control-language REPL. Flag
// parsing and script preloading follow the teacher engine's own prototype
// entrypoint; the REPL loop follows its later readline-based repl.go.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mrdg/triggerbox/audio"
	"github.com/mrdg/triggerbox/config"
	"github.com/mrdg/triggerbox/midi"
	"github.com/mrdg/triggerbox/props"
	"github.com/mrdg/triggerbox/region"
	"github.com/mrdg/triggerbox/tempo"
	"github.com/mrdg/triggerbox/trigger"
)

func main() {
	var (
		bpm      = flag.Float64("bpm", 0, "override the configured tempo")
		run      = flag.String("run", "", "path to a control-language script to preload")
		midiName = flag.String("midi", "", "substring match for the MIDI input port to bind")
		slots    = flag.Int("slots", 0, "override the configured number of slots")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *bpm > 0 {
		cfg.BPM = *bpm
	}
	if *slots > 0 {
		cfg.Slots = make([]config.Slot, *slots)
	}
	if len(cfg.Slots) == 0 {
		cfg.Slots = make([]config.Slot, 10)
	}

	tm := tempo.NewMap(float64(cfg.SampleRate), cfg.BPM)
	box := trigger.NewBox(len(cfg.Slots), tm, 1)

	for i, s := range cfg.Slots {
		slot := box.Slot(i)
		slot.Name = s.Name
		if s.File != "" {
			r, err := region.Load(s.File)
			if err != nil {
				log.Printf("triggerd: load %s for slot %d: %v", s.File, i, err)
			} else if err := box.SetRegion(i, r); err != nil {
				log.Printf("triggerd: set region for slot %d: %v", i, err)
			}
		}
		if s.LaunchStyle != "" {
			if style, err := trigger.ParseLaunchStyle(s.LaunchStyle); err == nil {
				slot.SetLaunchStyle(style)
			}
		}
		slot.SetLegato(s.Legato)
	}

	sink, err := audio.NewSink()
	if err != nil {
		log.Fatal(err)
	}

	devices := map[string]device{}
	synthStore := props.NewStore()
	synth := audio.Synth(synthStore)
	devices["synth"] = synth
	sink.AddSources(synth)

	var listener *midi.Listener
	if *midiName != "" || cfg.MidiInput != "" {
		name := *midiName
		if name == "" {
			name = cfg.MidiInput
		}
		listener, err = midi.Open(name)
		if err != nil {
			log.Printf("triggerd: midi input unavailable: %v", err)
		} else {
			log.Printf("triggerd: bound to MIDI input %q", listener.PortName())
		}
	}

	src := &boxSource{box: box, midi: listener}
	sink.AddSources(src)

	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()

	env := &environment{box: box, devices: devices, synth: synth, sampleRate: cfg.SampleRate, cfg: &cfg}

	if *run != "" {
		if err := runScript(env, *run); err != nil {
			log.Fatal(err)
		}
	}

	if err := repl(env); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// boxSource adapts the trigger box's per-slice Run method to the audio
// package's Source interface (audio/sink.go), advancing an absolute
// sample cursor across calls the same way the sink's other sources do.
type boxSource struct {
	box        *trigger.Box
	midi       *midi.Listener
	nextSample int64
	noteBuf    []trigger.NoteEvent
}

func (s *boxSource) Process(samples [][]float32) {
	nframes := len(samples[0])
	s.noteBuf = s.noteBuf[:0]
	if s.midi != nil {
		s.noteBuf = s.midi.Drain(s.noteBuf)
	}
	s.box.Run(samples, s.nextSample, nframes, s.noteBuf)
	s.nextSample += int64(nframes)
}

func runScript(env *environment, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := env.eval(line); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return scanner.Err()
}

func repl(env *environment) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := env.eval(line); err != nil {
			fmt.Println(err)
		}
	}
}
