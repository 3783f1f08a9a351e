// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Keeps the last frame between chunks so block boundaries stay continuous
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	// position is measured in input frames from last
	position float64
	last     []int32 // one sample per channel
	primed   bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels <= 0 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		last:       make([]int32, channels),
	}
}

// Resample converts interleaved input at inputRate into interleaved
// output at outputRate and returns the number of samples written. All of
// input is consumed; output should hold OutputSamplesNeeded(len(input)).
func (r *Resampler) Resample(input []int32, output []int32) int {
	ch := r.channels
	if !r.primed {
		if len(input) < ch {
			return 0
		}
		copy(r.last, input[:ch])
		input = input[ch:]
		r.primed = true
	}

	frames := len(input) / ch
	maxOut := len(output) / ch
	out := 0

	for out < maxOut {
		idx := int(r.position)
		if idx >= frames {
			break
		}

		// Linear interpolation factor
		frac := r.position - float64(idx)

		for c := 0; c < ch; c++ {
			var a int32
			if idx == 0 {
				a = r.last[c]
			} else {
				a = input[(idx-1)*ch+c]
			}
			b := input[idx*ch+c]
			output[out*ch+c] = int32(float64(a) + (float64(b)-float64(a))*frac)
		}

		out++
		r.position += r.ratio
	}

	if frames > 0 {
		copy(r.last, input[(frames-1)*ch:frames*ch])
		r.position -= float64(frames)
		if r.position < 0 {
			// output was too small; skip what could not be written
			r.position = 0
		}
	}

	return out * ch
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.primed = false
	for i := range r.last {
		r.last[i] = 0
	}
}

// Ratio returns input frames consumed per output frame
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// OutputSamplesNeeded returns an upper bound of the output samples produced from inputSamples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames)/r.ratio)) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(math.Ceil(float64(outputFrames) * r.ratio))
	if inputFrames < 1 {
		inputFrames = 1
	}
	return inputFrames * r.channels
}
