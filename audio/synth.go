package audio

import (
	"math"
	"sync/atomic"

	"github.com/mrdg/triggerbox/dsp"
	"github.com/mrdg/triggerbox/props"
)

const (
	propCutoff     = "cutoff"
	propEnvAttack  = "env.attack"
	propEnvDecay   = "env.decay"
	propEnvSustain = "env.sustain"
	propEnvRelease = "env.release"
	propOsc1Wave   = "osc1.wave"
	propOsc2Wave   = "osc2.wave"
)

var setEnvParam = props.SetFloat64(0.0005, 15)

func Synth(store *props.Store) *Instrument {
	var (
		cutoff     = store.MustRegister(propCutoff, props.SetFloat64(0, 20_000), 1000.0)
		envAttack  = store.MustRegister(propEnvAttack, setEnvParam, 0.01)
		envDecay   = store.MustRegister(propEnvDecay, setEnvParam, 0.5)
		envSustain = store.MustRegister(propEnvSustain, props.SetFloat64(0, 1), 1.0)
		envRelease = store.MustRegister(propEnvRelease, setEnvParam, 0.1)
		osc1Wave   = store.MustRegister(propOsc1Wave, props.SetOneOf("sine", "saw", "square", "off"), "saw")
		osc2Wave   = store.MustRegister(propOsc2Wave, props.SetOneOf("sine", "saw", "square", "off"), "square")
	)
	voices := make([]Voice, numVoices)
	for n := range voices {
		voices[n] = &synthVoice{
			cutoff:     cutoff,
			envAttack:  envAttack,
			envDecay:   envDecay,
			envSustain: envSustain,
			envRelease: envRelease,
			osc1Wave:   osc1Wave,
			osc2Wave:   osc2Wave,
			state:      stateFree,
			osc1:       &osc{},
			osc2:       &osc{},
			filter:     &filter{coefficients: make([]float64, numCoefficients)},
			env:        &dsp.Envelope{SampleRate: sampleRate},
			buf:        make([]float64, bufferSize),
		}
	}
	return NewInstrument(store, voices)
}

type synthVoice struct {
	buf           []float64
	cutoff        *atomic.Value
	envAttack     *atomic.Value
	envDecay      *atomic.Value
	envSustain    *atomic.Value
	envRelease    *atomic.Value
	osc1Wave      *atomic.Value
	osc2Wave      *atomic.Value
	osc1          *osc
	osc2          *osc
	filter        *filter
	env           *dsp.Envelope
	state         voiceState
	pitch         int
	duration      int
	samplesPlayed int
}

func (v *synthVoice) PlayNote(pitch, velocity, duration int) {
	freq := midiToFreq(pitch)
	v.pitch = pitch
	v.duration = duration
	v.samplesPlayed = 0
	v.env.Attack = v.envAttack.Load().(float64)
	v.env.Decay = v.envDecay.Load().(float64)
	v.env.Sustain = v.envSustain.Load().(float64)
	v.env.Release = v.envRelease.Load().(float64)
	v.env.StartAttack()
	v.state = stateActive

	phaseDelta := freq * twoPi / sampleRate
	v.osc1.setWaveform(v.osc1Wave.Load().(string))
	v.osc1.freq = freq
	v.osc1.phaseDelta = phaseDelta
	v.osc2.setWaveform(v.osc2Wave.Load().(string))
	v.osc2.freq = freq
	v.osc2.phaseDelta = phaseDelta
}

func (v *synthVoice) reset() {
	v.pitch = 0
	v.filter.y1 = 0.
	v.filter.y2 = 0.
	v.osc1.freq = 0
	v.osc1.phaseDelta = 0
	v.osc2.freq = 0
	v.osc2.phaseDelta = 0
	v.state = stateFree
}

func (v *synthVoice) Process(buf []float64) {
	v.filter.calculateCoefficients(v.cutoff.Load().(float64))
	tmp := v.buf[0:len(buf)]
	v.osc1.process(tmp)
	v.osc2.process(tmp)
	v.filter.process(tmp)
	v.env.Process(tmp)
	v.samplesPlayed += len(buf)
	for n := range tmp {
		buf[n] += 0.1 * tmp[n]
		tmp[n] = 0
	}
	if v.samplesPlayed >= v.duration && v.state != stateReleased {
		v.state = stateReleased
		v.env.StartRelease()
	}
	if v.state == stateReleased && v.env.Idle() {
		v.reset()
	}
}

func (v *synthVoice) Notify(pitch int) {
	if v.pitch == pitch {
		v.stop()
	}
}

func (v *synthVoice) stop() {
	if v.state == stateActive {
		v.env.Release = 0.001
		v.env.StartRelease()
	}
}

func (v *synthVoice) State() voiceState { return v.state }

const (
	twoPi           = 2 * math.Pi
	numCoefficients = 5
)

type osc struct {
	wave       string
	phase      float64
	phaseDelta float64
	freq       float64
	fn         func(float64) float64
}

func (o *osc) process(buf []float64) {
	for n := range buf {
		buf[n] += o.fn(o.phase)
		o.phase += o.phaseDelta
		if o.phase >= twoPi {
			o.phase -= twoPi
		}
	}
}

func (o *osc) setWaveform(s string) {
	switch s {
	case "sine":
		o.fn = math.Sin
	case "saw":
		o.fn = func(phase float64) float64 {
			return (2.0 * o.phase / twoPi) - 1.
		}
	case "square":
		o.fn = func(phase float64) float64 {
			if phase <= math.Pi {
				return 1.0
			} else {
				return -1.0
			}
		}
	case "off":
		o.fn = func(_ float64) float64 { return 0 }
	}
}

type filter struct {
	coefficients []float64

	// state
	y1, y2 float64 // y[n-1] y[n-2]
}

// Lowpass filter based on https://www.w3.org/2011/audio/audio-eq-cookbook.html
func (f *filter) process(buf []float64) {
	c0 := f.coefficients[0]
	c1 := f.coefficients[1]
	c2 := f.coefficients[2]
	c3 := f.coefficients[3]
	c4 := f.coefficients[4]

	for n := range buf {
		in := buf[n]
		out := c0*in + f.y1
		buf[n] = out
		f.y1 = c1*in - c3*out + f.y2
		f.y2 = c2*in - c4*out
	}
}

func (f *filter) calculateCoefficients(freq float64) {
	omega := 2 * math.Pi * freq / sampleRate
	cos := math.Cos(omega)
	sin := math.Sin(omega)

	const q = 1
	alpha := sin / (2. * q)

	var b0, b1, b2, a0, a1, a2 float64

	b0 = (1 - cos) / 2
	b1 = 1 - cos
	b2 = b0
	a0 = 1 + alpha
	a1 = -2 * cos
	a2 = 1 - alpha

	f.coefficients[0] = b0 / a0
	f.coefficients[1] = b1 / a0
	f.coefficients[2] = b2 / a0
	f.coefficients[3] = a1 / a0
	f.coefficients[4] = a2 / a0
}

func midiToFreq(note int) float64 {
	f := math.Pow(2, float64((note-69))/12.0) * 440
	return f
}
