package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mrdg/triggerbox/audio"
	"github.com/mrdg/triggerbox/config"
	"github.com/mrdg/triggerbox/control"
	"github.com/mrdg/triggerbox/region"
	"github.com/mrdg/triggerbox/tempo"
	"github.com/mrdg/triggerbox/trigger"
)

// device is anything exposing a props.Store-backed set/get surface;
// *audio.Instrument satisfies it through its embedded *props.Store.
type device interface {
	Set(key string, value interface{}) error
	Get(key string) (interface{}, error)
}

// environment holds everything a control-language command needs to act on:
// the trigger box, the named instruments available for set/get/audition,
// and (through the embedded *audio.Instrument) the property store each
// exposes. Grounded on the teacher engine's dropped repl.go, which paired
// a sequencer with a device map the same way.
type environment struct {
	box        *trigger.Box
	devices    map[string]device
	synth      *audio.Instrument
	sampleRate int
	cfg        *config.Config
}

type command struct {
	arity int // -1 means variadic
	run   func(env *environment, args []control.Node) error
}

var commands = map[string]command{
	"bang":                          {1, cmdBang},
	"unbang":                        {1, cmdUnbang},
	"stop":                          {1, cmdStop},
	"request-stop-all":              {0, cmdStopAll},
	"set-region":                    {2, cmdSetRegion},
	"set-from-path":                 {2, cmdSetRegion},
	"set-length":                    {2, cmdSetLength},
	"set-launch-style":              {2, cmdSetLaunchStyle},
	"set-follow-action":             {3, cmdSetFollowAction},
	"set-follow-action-probability": {2, cmdSetFollowActionProbability},
	"set-quantization":              {4, cmdSetQuantization},
	"set-legato":                    {2, cmdSetLegato},
	"set":                           {3, cmdSet},
	"get":                           {2, cmdGet},
	"audition":                      {1, cmdAudition},
	"preset":                        {1, cmdPreset},
	"save":                          {1, cmdSave},
	"load":                          {1, cmdLoad},
}

func (env *environment) eval(line string) error {
	cmd, err := control.Parse(line)
	if err != nil {
		return err
	}
	c, ok := commands[string(cmd.Name)]
	if !ok {
		return fmt.Errorf("unknown command: %s", cmd.Name)
	}
	if c.arity >= 0 && len(cmd.Args) != c.arity {
		return fmt.Errorf("%s: expected %d argument(s), got %d", cmd.Name, c.arity, len(cmd.Args))
	}
	return c.run(env, cmd.Args)
}

// readArgs copies args into dsts in order, type-checking each one against
// the destination pointer's type. dsts elements must be one of *int,
// *float64, or *string.
func readArgs(args []control.Node, dsts ...interface{}) error {
	if len(args) != len(dsts) {
		return fmt.Errorf("expected %d argument(s), got %d", len(dsts), len(args))
	}
	for i, dst := range dsts {
		switch d := dst.(type) {
		case *int:
			n, err := nodeInt(args[i])
			if err != nil {
				return err
			}
			*d = n
		case *float64:
			f, err := nodeFloat(args[i])
			if err != nil {
				return err
			}
			*d = f
		case *string:
			s, err := nodeString(args[i])
			if err != nil {
				return err
			}
			*d = s
		default:
			return fmt.Errorf("readArgs: unsupported destination type %T", dst)
		}
	}
	return nil
}

func nodeInt(n control.Node) (int, error) {
	switch v := n.(type) {
	case control.Int:
		return int(v), nil
	case control.Float:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %v", n)
	}
}

func nodeFloat(n control.Node) (float64, error) {
	switch v := n.(type) {
	case control.Float:
		return float64(v), nil
	case control.Int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %v", n)
	}
}

func nodeString(n control.Node) (string, error) {
	switch v := n.(type) {
	case control.String:
		return string(v), nil
	case control.Identifier:
		return string(v), nil
	default:
		return "", fmt.Errorf("expected a string or identifier, got %v", n)
	}
}

func cmdBang(env *environment, args []control.Node) error {
	var idx int
	if err := readArgs(args, &idx); err != nil {
		return err
	}
	return env.box.Bang(idx)
}

func cmdUnbang(env *environment, args []control.Node) error {
	var idx int
	if err := readArgs(args, &idx); err != nil {
		return err
	}
	return env.box.Unbang(idx)
}

func cmdStop(env *environment, args []control.Node) error {
	var idx int
	if err := readArgs(args, &idx); err != nil {
		return err
	}
	return env.box.Stop(idx)
}

func cmdStopAll(env *environment, args []control.Node) error {
	env.box.RequestStopAll()
	return nil
}

func cmdSetRegion(env *environment, args []control.Node) error {
	var idx int
	var path string
	if err := readArgs(args, &idx, &path); err != nil {
		return err
	}
	r, err := region.Load(path)
	if err != nil {
		return err
	}
	return env.box.SetRegion(idx, r)
}

func cmdSetLength(env *environment, args []control.Node) error {
	var idx int
	var seconds float64
	if err := readArgs(args, &idx, &seconds); err != nil {
		return err
	}
	slot := env.box.Slot(idx)
	if slot == nil {
		return fmt.Errorf("no such slot: %d", idx)
	}
	clip := slot.Clip()
	if clip == nil || !clip.Loaded() {
		return fmt.Errorf("slot %d has no region loaded", idx)
	}
	return env.box.SetLength(idx, int64(seconds*float64(env.sampleRate)))
}

func cmdSetLaunchStyle(env *environment, args []control.Node) error {
	var idx int
	var name string
	if err := readArgs(args, &idx, &name); err != nil {
		return err
	}
	style, err := trigger.ParseLaunchStyle(name)
	if err != nil {
		return err
	}
	slot := env.box.Slot(idx)
	if slot == nil {
		return fmt.Errorf("no such slot: %d", idx)
	}
	slot.SetLaunchStyle(style)
	return nil
}

func cmdSetFollowAction(env *environment, args []control.Node) error {
	var idx, which int
	var name string
	if err := readArgs(args, &idx, &which, &name); err != nil {
		return err
	}
	action, err := trigger.ParseFollowAction(name)
	if err != nil {
		return err
	}
	slot := env.box.Slot(idx)
	if slot == nil {
		return fmt.Errorf("no such slot: %d", idx)
	}
	slot.SetFollowAction(which, action)
	return nil
}

func cmdSetFollowActionProbability(env *environment, args []control.Node) error {
	var idx, p int
	if err := readArgs(args, &idx, &p); err != nil {
		return err
	}
	slot := env.box.Slot(idx)
	if slot == nil {
		return fmt.Errorf("no such slot: %d", idx)
	}
	return slot.SetFollowActionProbability(p)
}

func cmdSetQuantization(env *environment, args []control.Node) error {
	var idx, bars, beats, ticks int
	if err := readArgs(args, &idx, &bars, &beats, &ticks); err != nil {
		return err
	}
	slot := env.box.Slot(idx)
	if slot == nil {
		return fmt.Errorf("no such slot: %d", idx)
	}
	return slot.SetQuantization(tempo.Quantization{Bars: bars, Beats: beats, Ticks: ticks})
}

func cmdSetLegato(env *environment, args []control.Node) error {
	var idx int
	var on string
	if err := readArgs(args, &idx, &on); err != nil {
		return err
	}
	slot := env.box.Slot(idx)
	if slot == nil {
		return fmt.Errorf("no such slot: %d", idx)
	}
	v, err := strconv.ParseBool(on)
	if err != nil {
		return err
	}
	slot.SetLegato(v)
	return nil
}

func cmdSet(env *environment, args []control.Node) error {
	var deviceName, key string
	if err := readArgs(args[:2], &deviceName, &key); err != nil {
		return err
	}
	dev, ok := env.devices[deviceName]
	if !ok {
		return fmt.Errorf("no such device: %s", deviceName)
	}
	switch v := args[2].(type) {
	case control.Float:
		return dev.Set(key, float64(v))
	case control.Int:
		return dev.Set(key, float64(v))
	case control.String:
		return dev.Set(key, string(v))
	case control.Identifier:
		return dev.Set(key, string(v))
	default:
		return fmt.Errorf("unsupported value: %v", v)
	}
}

func cmdGet(env *environment, args []control.Node) error {
	var deviceName, key string
	if err := readArgs(args, &deviceName, &key); err != nil {
		return err
	}
	dev, ok := env.devices[deviceName]
	if !ok {
		return fmt.Errorf("no such device: %s", deviceName)
	}
	v, err := dev.Get(key)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func cmdAudition(env *environment, args []control.Node) error {
	var pitch int
	if err := readArgs(args, &pitch); err != nil {
		return err
	}
	env.synth.PlayNote(0, pitch, 100, env.sampleRate/4)
	return nil
}

// cmdPreset loads a named audition preset onto the synth device.
func cmdPreset(env *environment, args []control.Node) error {
	var name string
	if err := readArgs(args, &name); err != nil {
		return err
	}
	return audio.LoadPreset(name, env.synth)
}

// cmdSave writes the trigger box's behavioral snapshot to path and, if a
// config was loaded at startup, persists it alongside per SPEC_FULL.md §6.
func cmdSave(env *environment, args []control.Node) error {
	var path string
	if err := readArgs(args, &path); err != nil {
		return err
	}
	data, err := env.box.Save()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if env.cfg != nil {
		if err := config.Save(*env.cfg); err != nil {
			return err
		}
	}
	return nil
}

// cmdLoad restores the trigger box's behavioral snapshot from path,
// resolving persisted region references as file paths.
func cmdLoad(env *environment, args []control.Node) error {
	var path string
	if err := readArgs(args, &path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return env.box.Load(data, func(id string) (region.Region, error) {
		return region.Load(id)
	})
}
