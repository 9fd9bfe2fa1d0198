package audio

import (
	"encoding/binary"

	goaudio "github.com/go-audio/audio"
)

// BytesToInt16 decodes little-endian 16-bit PCM. A trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// Int16ToBytes encodes samples as little-endian 16-bit PCM
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Int16ToFloat32 converts mono 16-bit PCM into the [-1, 1] float buffer
// whisper.cpp consumes
func Int16ToFloat32(samples []int16, sampleRate int) []float32 {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	return buf.AsFloat32Buffer().Data
}

// Energy returns the RMS energy of a frame normalised to [0, 1]
func Energy(samples []int16) float64 {
	return calculateEnergy(samples)
}
