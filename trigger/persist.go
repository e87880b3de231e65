package trigger

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrdg/triggerbox/region"
	"github.com/mrdg/triggerbox/tempo"
)

// The persistence shim is opaque and tree-structured, per §6: a TriggerBox
// node with a data-type attribute and a Triggers child holding one Trigger
// node per slot. Only behavioral fields round-trip; live state (cursor,
// wait flags) and queues are never saved.

type boxXML struct {
	XMLName  xml.Name    `xml:"TriggerBox"`
	DataType string      `xml:"data-type,attr"`
	Triggers triggersXML `xml:"Triggers"`
}

type triggersXML struct {
	Trigger []triggerXML `xml:"Trigger"`
}

type triggerXML struct {
	Legato        string `xml:"legato,attr"`
	LaunchStyle   string `xml:"launch-style,attr"`
	FollowAction0 string `xml:"follow-action-0,attr"`
	FollowAction1 string `xml:"follow-action-1,attr"`
	Quantization  string `xml:"quantization,attr"`
	Name          string `xml:"name,attr"`
	Index         string `xml:"index,attr"`
	Region        string `xml:"region,attr"`
	Start         string `xml:"start,attr"`
	Length        string `xml:"length,attr"`
}

func formatQuantization(q tempo.Quantization) string {
	return fmt.Sprintf("%d.%d.%d", q.Bars, q.Beats, q.Ticks)
}

func parseQuantization(s string) (tempo.Quantization, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return tempo.Quantization{}, fmt.Errorf("trigger: malformed quantization %q", s)
	}
	var q tempo.Quantization
	var err error
	if q.Bars, err = strconv.Atoi(parts[0]); err != nil {
		return q, fmt.Errorf("trigger: malformed quantization %q: %w", s, err)
	}
	if q.Beats, err = strconv.Atoi(parts[1]); err != nil {
		return q, fmt.Errorf("trigger: malformed quantization %q: %w", s, err)
	}
	if q.Ticks, err = strconv.Atoi(parts[2]); err != nil {
		return q, fmt.Errorf("trigger: malformed quantization %q: %w", s, err)
	}
	return q, nil
}

// Save serializes the box's behavioral fields to the XML snapshot format.
func (b *Box) Save() ([]byte, error) {
	doc := boxXML{DataType: "audio"}
	for _, s := range b.slots {
		x := triggerXML{
			Legato:        strconv.FormatBool(s.legato),
			LaunchStyle:   s.launchStyle.String(),
			FollowAction0: s.followAction[0].String(),
			FollowAction1: s.followAction[1].String(),
			Quantization:  formatQuantization(s.quantization),
			Name:          s.Name,
			Index:         strconv.Itoa(s.Index),
		}
		if clip := s.Clip(); clip != nil && clip.Loaded() {
			x.Region = s.Name
			x.Start = strconv.FormatInt(clip.startOffset, 10)
			x.Length = strconv.FormatInt(clip.usableLength, 10)
		}
		doc.Triggers.Trigger = append(doc.Triggers.Trigger, x)
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("trigger: marshal snapshot: %w", err)
	}
	return out, nil
}

// RegionResolver looks up a Region by the id string a persisted Trigger
// node references. Region decoding lives outside the core (§1), so Load
// takes this as a callback rather than depending on any concrete loader.
type RegionResolver func(id string) (region.Region, error)

// Load restores a box's behavioral fields from a snapshot produced by
// Save. Slots must already exist (same slot count as when saved); Load
// does not resize the bank. Live state is not restored: every touched
// slot's state is set to Stopped, and a slot whose region is reloaded has
// its read cursor reset by the load. The box's queues are not touched.
func (b *Box) Load(data []byte, resolve RegionResolver) error {
	var doc boxXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("trigger: unmarshal snapshot: %w", err)
	}
	for _, x := range doc.Triggers.Trigger {
		idx, err := strconv.Atoi(x.Index)
		if err != nil {
			return fmt.Errorf("trigger: malformed index %q: %w", x.Index, err)
		}
		if err := b.checkIndex(idx); err != nil {
			return err
		}
		s := b.slots[idx]
		s.state = Stopped
		s.Name = x.Name

		legato, err := strconv.ParseBool(x.Legato)
		if err != nil {
			return fmt.Errorf("trigger: malformed legato %q: %w", x.Legato, err)
		}
		s.legato = legato

		if s.launchStyle, err = ParseLaunchStyle(x.LaunchStyle); err != nil {
			return err
		}
		if s.followAction[0], err = ParseFollowAction(x.FollowAction0); err != nil {
			return err
		}
		if s.followAction[1], err = ParseFollowAction(x.FollowAction1); err != nil {
			return err
		}
		if s.quantization, err = parseQuantization(x.Quantization); err != nil {
			return err
		}

		if x.Region == "" {
			continue
		}
		r, err := resolve(x.Region)
		if err != nil {
			return fmt.Errorf("trigger: resolve region %q: %w", x.Region, err)
		}
		clip := s.Clip()
		if clip == nil {
			return errBadArgument("slot %d is not an audio slot but has a region", idx)
		}
		if err := clip.Load(r); err != nil {
			return errLoadFailure("%v", err)
		}
		if start, err := strconv.ParseInt(x.Start, 10, 64); err == nil {
			clip.SetStartOffset(start)
		}
		if length, err := strconv.ParseInt(x.Length, 10, 64); err == nil {
			clip.SetUsableLength(length)
		}
	}
	return nil
}
