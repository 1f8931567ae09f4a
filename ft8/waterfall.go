package ft8

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

/*
 * Waterfall Generation
 * Short-time spectral transform over the symbol grid, with time and
 * frequency oversampling for sub-symbol sync resolution
 */

// Waterfall is the time-frequency magnitude grid the sync search and the
// demodulator read from. Magnitudes are stored as uint8 on a half-dB scale:
// value = 2*dB + 240, mapping -120 dB to 0 and +7.5 dB to 255.
//
// The frequency axis is laid out in tone-spacing (6.25 Hz) bins, each
// subdivided FreqOSR times; (bin, freqSub) addresses the FFT bin
// minBin + bin*FreqOSR + freqSub.
type Waterfall struct {
	MaxBlocks   int     // Symbol blocks allocated
	NumBlocks   int     // Symbol blocks stored so far
	NumBins     int     // Tone-spacing bins covered
	TimeOSR     int     // Time oversampling rate
	FreqOSR     int     // Frequency oversampling rate
	MinBin      int     // First FFT bin of the search range
	BinWidthHz  float64 // Width of one FFT bin (ToneSpacingHz / FreqOSR)
	Mag         []uint8 // [block][timeSub][freqSub][bin]
	BlockStride int     // timeOSR * freqOSR * numBins
}

// Mag8 returns the stored magnitude at the given grid position, zero when
// out of bounds.
func (wf *Waterfall) Mag8(block, bin, timeSub, freqSub int) uint8 {
	if block < 0 || block >= wf.NumBlocks || bin < 0 || bin >= wf.NumBins {
		return 0
	}
	idx := block*wf.BlockStride + timeSub*wf.FreqOSR*wf.NumBins + freqSub*wf.NumBins + bin
	return wf.Mag[idx]
}

// Monitor feeds audio through the windowed FFT and fills the waterfall.
type Monitor struct {
	BlockSize    int        // Samples per symbol
	SubblockSize int        // Analysis shift per time subdivision
	NFFT         int        // FFT length
	Waterfall    *Waterfall // Output grid

	fft       *fourier.FFT
	window    []float64    // Hann window with FFT normalization folded in
	lastFrame []float64    // Sliding analysis frame
	timeData  []float64    // Windowed FFT input
	freqData  []complex128 // FFT output
}

// NewMonitor builds the analysis grid for one capture window. The FFT
// length is chosen so one bin spans exactly ToneSpacingHz / FreqOSR; gonum
// handles the resulting non-power-of-2 lengths without penalty worth
// caring about at this block rate.
func NewMonitor(cfg Config) *Monitor {
	blockSize := int(float64(cfg.SampleRate) * SymbolSeconds)
	subblockSize := blockSize / cfg.TimeOSR

	binWidth := ToneSpacingHz / float64(cfg.FreqOSR)
	nfft := int(math.Round(float64(cfg.SampleRate) / binWidth))

	minBin := int(math.Round(cfg.MinFreq / binWidth))
	numBins := int((cfg.MaxFreq - cfg.MinFreq) / ToneSpacingHz)

	maxBlocks := int(math.Floor(SlotSeconds/SymbolSeconds)) + 1
	wf := &Waterfall{
		MaxBlocks:   maxBlocks,
		NumBins:     numBins,
		TimeOSR:     cfg.TimeOSR,
		FreqOSR:     cfg.FreqOSR,
		MinBin:      minBin,
		BinWidthHz:  binWidth,
		Mag:         make([]uint8, maxBlocks*cfg.TimeOSR*cfg.FreqOSR*numBins),
		BlockStride: cfg.TimeOSR * cfg.FreqOSR * numBins,
	}

	// Hann window with the 2/N FFT normalization applied up front.
	norm := 2.0 / float64(nfft)
	window := make([]float64, nfft)
	for i := range window {
		s := math.Sin(math.Pi * float64(i) / float64(nfft))
		window[i] = norm * s * s
	}

	return &Monitor{
		BlockSize:    blockSize,
		SubblockSize: subblockSize,
		NFFT:         nfft,
		Waterfall:    wf,
		fft:          fourier.NewFFT(nfft),
		window:       window,
		lastFrame:    make([]float64, nfft),
		timeData:     make([]float64, nfft),
		freqData:     make([]complex128, nfft/2+1),
	}
}

// Process consumes one symbol block of samples and appends one waterfall
// row per time subdivision.
func (m *Monitor) Process(block []float32) {
	for timeSub := 0; timeSub < m.Waterfall.TimeOSR; timeSub++ {
		offset := timeSub * m.SubblockSize

		copy(m.lastFrame, m.lastFrame[m.SubblockSize:])
		for i := 0; i < m.SubblockSize; i++ {
			v := 0.0
			if offset+i < len(block) {
				v = float64(block[offset+i])
			}
			m.lastFrame[m.NFFT-m.SubblockSize+i] = v
		}

		for i := 0; i < m.NFFT; i++ {
			m.timeData[i] = m.lastFrame[i] * m.window[i]
		}

		m.freqData = m.fft.Coefficients(m.freqData, m.timeData)
		m.storeMagnitudes(timeSub)
	}

	m.Waterfall.NumBlocks++
}

// ProcessFrame runs a whole captured frame through the monitor in symbol
// blocks, dropping any partial trailing block.
func (m *Monitor) ProcessFrame(frame *AudioFrame) {
	for off := 0; off+m.BlockSize <= len(frame.Samples); off += m.BlockSize {
		if m.Waterfall.NumBlocks >= m.Waterfall.MaxBlocks {
			break
		}
		m.Process(frame.Samples[off : off+m.BlockSize])
	}
}

func (m *Monitor) storeMagnitudes(timeSub int) {
	wf := m.Waterfall
	block := wf.NumBlocks
	if block >= wf.MaxBlocks {
		return
	}
	baseIdx := block*wf.BlockStride + timeSub*wf.FreqOSR*wf.NumBins

	for bin := 0; bin < wf.NumBins; bin++ {
		for freqSub := 0; freqSub < wf.FreqOSR; freqSub++ {
			fftBin := wf.MinBin + bin*wf.FreqOSR + freqSub
			if fftBin >= len(m.freqData) {
				return
			}
			re := real(m.freqData[fftBin])
			im := imag(m.freqData[fftBin])
			db := 10.0 * math.Log10(1e-12+re*re+im*im)

			scaled := int(2.0*db + 240.0)
			if scaled < 0 {
				scaled = 0
			}
			if scaled > 255 {
				scaled = 255
			}
			wf.Mag[baseIdx+freqSub*wf.NumBins+bin] = uint8(scaled)
		}
	}
}

// Reset clears the monitor for a new cycle.
func (m *Monitor) Reset() {
	m.Waterfall.NumBlocks = 0
	for i := range m.lastFrame {
		m.lastFrame[i] = 0
	}
}
