package wakeword

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	featureWindow = 400 // 25ms at 16kHz
	featureHop    = 160 // 10ms at 16kHz
	featureBands  = 24
)

// featureExtractor turns PCM into per-frame log band energies
type featureExtractor struct {
	sampleRate int
	window     []float64
	bands      [][2]int
}

func newFeatureExtractor(sampleRate int) *featureExtractor {
	fe := &featureExtractor{
		sampleRate: sampleRate,
		window:     window.Hamming(featureWindow),
	}
	fe.bands = melBands(featureWindow, sampleRate, featureBands)
	return fe
}

// Extract returns one feature vector per hop. Each vector has its mean
// removed so overall loudness does not affect distances.
func (fe *featureExtractor) Extract(samples []int16) [][]float64 {
	if len(samples) < featureWindow {
		return nil
	}

	var out [][]float64
	buf := make([]float64, featureWindow)
	for start := 0; start+featureWindow <= len(samples); start += featureHop {
		for i := range buf {
			buf[i] = float64(samples[start+i]) / 32768.0 * fe.window[i]
		}
		spectrum := fft.FFTReal(buf)

		vec := make([]float64, len(fe.bands))
		var mean float64
		for b, band := range fe.bands {
			var power float64
			for k := band[0]; k < band[1]; k++ {
				m := cmplx.Abs(spectrum[k])
				power += m * m
			}
			vec[b] = math.Log(power + 1e-10)
			mean += vec[b]
		}
		mean /= float64(len(vec))
		for b := range vec {
			vec[b] -= mean
		}
		out = append(out, vec)
	}
	return out
}

// melBands splits the positive FFT bins into n mel-spaced ranges
func melBands(fftSize, sampleRate, n int) [][2]int {
	toMel := func(f float64) float64 { return 2595 * math.Log10(1+f/700) }
	fromMel := func(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

	nyquist := float64(sampleRate) / 2
	maxMel := toMel(nyquist)
	binHz := float64(sampleRate) / float64(fftSize)
	maxBin := fftSize / 2

	bands := make([][2]int, 0, n)
	lo := 1
	for i := 1; i <= n; i++ {
		hi := int(fromMel(maxMel*float64(i)/float64(n))/binHz) + 1
		if hi > maxBin {
			hi = maxBin
		}
		if hi <= lo {
			hi = lo + 1
		}
		bands = append(bands, [2]int{lo, hi})
		lo = hi
		if lo >= maxBin {
			break
		}
	}
	return bands
}

// trimSilence drops leading and trailing 10ms windows below threshold
func trimSilence(samples []int16, threshold float64, windowSize int) []int16 {
	if windowSize <= 0 {
		return samples
	}
	energy := func(w []int16) float64 {
		var sum float64
		for _, s := range w {
			v := float64(s) / 32768.0
			sum += v * v
		}
		return math.Sqrt(sum / float64(len(w)))
	}

	start, end := 0, len(samples)
	for start+windowSize <= end && energy(samples[start:start+windowSize]) < threshold {
		start += windowSize
	}
	for end-windowSize >= start && energy(samples[end-windowSize:end]) < threshold {
		end -= windowSize
	}
	return samples[start:end]
}

// cosineDistance is 1 - cos(a, b); a zero vector is at distance 1 from any
// non-zero vector and 0 from another zero vector
func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na < 1e-12 || nb < 1e-12 {
		if na < 1e-12 && nb < 1e-12 {
			return 0
		}
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// dtwDistance aligns two feature sequences and returns the accumulated
// cost divided by the combined length
func dtwDistance(a, b [][]float64) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := cosineDistance(a[i-1], b[j-1])
			best := prev[j-1]
			if prev[j] < best {
				best = prev[j]
			}
			if curr[j-1] < best {
				best = curr[j-1]
			}
			curr[j] = cost + best
		}
		prev, curr = curr, prev
	}

	return prev[m] / float64(n+m)
}
