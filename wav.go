package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavHeader is the canonical 44-byte PCM WAV header.
type wavHeader struct {
	ChunkID   [4]byte // "RIFF"
	ChunkSize uint32
	Format    [4]byte // "WAVE"

	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16

	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// ReadWAV loads a 16-bit PCM WAV file and returns the interleaved samples.
func ReadWAV(path string) (pcm []int16, sampleRate, channels int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	var hdr wavHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read WAV header: %w", err)
	}
	if string(hdr.ChunkID[:]) != "RIFF" || string(hdr.Format[:]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("not a WAV file")
	}
	if hdr.AudioFormat != 1 || hdr.BitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("unsupported WAV format: format=%d bits=%d (need 16-bit PCM)",
			hdr.AudioFormat, hdr.BitsPerSample)
	}

	// Tolerate writers that put extra chunks before "data": the fixed
	// header above covers the common layout, anything else is scanned for.
	if string(hdr.Subchunk2ID[:]) != "data" {
		if _, err := f.Seek(int64(hdr.Subchunk2Size), io.SeekCurrent); err != nil {
			return nil, 0, 0, fmt.Errorf("malformed WAV chunks: %w", err)
		}
		for {
			var chunk struct {
				ID   [4]byte
				Size uint32
			}
			if err := binary.Read(f, binary.LittleEndian, &chunk); err != nil {
				return nil, 0, 0, fmt.Errorf("no data chunk found: %w", err)
			}
			if string(chunk.ID[:]) == "data" {
				hdr.Subchunk2Size = chunk.Size
				break
			}
			if _, err := f.Seek(int64(chunk.Size), io.SeekCurrent); err != nil {
				return nil, 0, 0, fmt.Errorf("malformed WAV chunks: %w", err)
			}
		}
	}

	pcm = make([]int16, hdr.Subchunk2Size/2)
	if err := binary.Read(f, binary.LittleEndian, pcm); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read WAV data: %w", err)
	}
	return pcm, int(hdr.SampleRate), int(hdr.NumChannels), nil
}

// WAVWriter streams 16-bit PCM into a WAV file, fixing up the header sizes
// on Close.
type WAVWriter struct {
	file       *os.File
	sampleRate int
	channels   int
	dataSize   int64
}

// NewWAVWriter creates the file and writes a placeholder header.
func NewWAVWriter(filename string, sampleRate, channels int) (*WAVWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file: %w", err)
	}

	w := &WAVWriter{file: file, sampleRate: sampleRate, channels: channels}
	if err := binary.Write(file, binary.LittleEndian, w.header(0xFFFFFFFF, 0xFFFFFFFF)); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return w, nil
}

func (w *WAVWriter) header(chunkSize, dataSize uint32) *wavHeader {
	return &wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     chunkSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(w.channels),
		SampleRate:    uint32(w.sampleRate),
		ByteRate:      uint32(w.sampleRate * w.channels * 2),
		BlockAlign:    uint16(w.channels * 2),
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// WriteSamples appends PCM samples to the data chunk.
func (w *WAVWriter) WriteSamples(samples []int16) error {
	if err := binary.Write(w.file, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	w.dataSize += int64(len(samples)) * 2
	return nil
}

// Close finalizes the header and closes the file.
func (w *WAVWriter) Close() error {
	if w.file == nil {
		return nil
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to seek to beginning: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, w.header(uint32(w.dataSize+36), uint32(w.dataSize))); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to update WAV header: %w", err)
	}
	return w.file.Close()
}
