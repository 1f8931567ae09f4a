package ft8

import (
	"math"
	"time"
)

/*
 * Resampler
 * Converts arbitrary-rate, arbitrary-channel PCM into the fixed-rate mono
 * frames the analysis grid expects. Band-limited windowed-sinc
 * interpolation; deterministic for identical input.
 */

// resampleTaps is the one-sided kernel width in source samples. 24 taps
// keeps aliasing below the decoder's noise floor for the rate ratios seen
// from common capture rates (44.1k, 48k, 96k -> 12k).
const resampleTaps = 24

// MixChannel selects one channel from interleaved PCM, or averages all
// channels when channel is negative, producing mono float32 samples
// normalized to +/-1.0.
func MixChannel(pcm []int16, channels, channel int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / channels
	mono := make([]float32, frames)

	if channel >= 0 && channel < channels {
		for i := 0; i < frames; i++ {
			mono[i] = float32(pcm[i*channels+channel]) / 32768.0
		}
		return mono
	}

	scale := 1.0 / (32768.0 * float32(channels))
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(pcm[i*channels+c])
		}
		mono[i] = sum * scale
	}
	return mono
}

// Resample converts mono samples from srcRate to dstRate using a
// Blackman-Harris windowed sinc kernel. Same input always yields the same
// output.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(dstRate) / float64(srcRate)
	outLen := int(float64(len(samples)) * ratio)
	out := make([]float32, outLen)

	// Cutoff at 90% of the narrower Nyquist, normalized to the source rate.
	cutoff := 0.45
	if ratio < 1 {
		cutoff *= ratio
	}

	for i := 0; i < outLen; i++ {
		center := float64(i) / ratio
		j0 := int(math.Ceil(center)) - resampleTaps
		j1 := int(math.Floor(center)) + resampleTaps
		if j0 < 0 {
			j0 = 0
		}
		if j1 >= len(samples) {
			j1 = len(samples) - 1
		}

		var acc, norm float64
		for j := j0; j <= j1; j++ {
			x := center - float64(j)
			w := sinc(2*cutoff*x) * blackmanHarris(x/float64(resampleTaps))
			acc += float64(samples[j]) * w
			norm += w
		}
		if norm != 0 {
			out[i] = float32(acc / norm)
		}
	}
	return out
}

// BuildFrame runs the full capture conversion: channel mixdown, resampling
// to the decode rate, and duration validation. Frames shorter than the
// minimum decodable duration yield ErrInsufficientAudio; a missing tail of
// up to one symbol is zero-padded to the full transmission length.
func BuildFrame(pcm []int16, srcRate, channels, channel int, start time.Time, cfg Config) (*AudioFrame, error) {
	mono := MixChannel(pcm, channels, channel)
	resampled := Resample(mono, srcRate, cfg.SampleRate)

	minSamples := int(math.Ceil(MinRecordSeconds() * float64(cfg.SampleRate)))
	if len(resampled) < minSamples {
		return nil, ErrInsufficientAudio
	}

	full := int(SymbolSeconds * float64(NumSymbols) * float64(cfg.SampleRate))
	if len(resampled) < full {
		padded := make([]float32, full)
		copy(padded, resampled)
		resampled = padded
	}

	return &AudioFrame{
		Samples: resampled,
		Rate:    cfg.SampleRate,
		Start:   start.UTC(),
	}, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// blackmanHarris evaluates the 4-term Blackman-Harris window at x in
// [-1, 1], zero outside.
func blackmanHarris(x float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}
	t := (x + 1) / 2 * 2 * math.Pi
	return 0.35875 - 0.48829*math.Cos(t) + 0.14128*math.Cos(2*t) - 0.01168*math.Cos(3*t)
}
