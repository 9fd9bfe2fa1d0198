package audio

// SegmenterConfig configures utterance segmentation
type SegmenterConfig struct {
	// SilenceFrames is how many consecutive non-speech frames close an utterance
	SilenceFrames int

	// MaxSamples forces an utterance out once this many samples are buffered
	MaxSamples int

	// PreRollFrames of audio preceding the first speech frame are kept
	PreRollFrames int
}

// DefaultSegmenterConfig returns segmentation settings for 16kHz audio
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		SilenceFrames: 12,
		MaxSamples:    16000 * 8,
		PreRollFrames: 3,
	}
}

// Segmenter groups a frame stream into speech utterances
type Segmenter struct {
	config   SegmenterConfig
	detector VoiceDetector
	preRoll  [][]int16
	current  []int16
	speaking bool
	silence  int
}

// NewSegmenter creates a segmenter using detector to classify frames
func NewSegmenter(detector VoiceDetector, config SegmenterConfig) *Segmenter {
	return &Segmenter{
		config:   config,
		detector: detector,
	}
}

// Push feeds one frame. It returns a finished utterance when speech has
// ended or the maximum length was reached.
func (s *Segmenter) Push(frame []int16) ([]int16, bool, error) {
	speech, err := s.detector.IsSpeech(frame)
	if err != nil {
		return nil, false, err
	}

	if !s.speaking {
		if !speech {
			s.keepPreRoll(frame)
			return nil, false, nil
		}
		s.speaking = true
		s.silence = 0
		for _, f := range s.preRoll {
			s.current = append(s.current, f...)
		}
		s.preRoll = s.preRoll[:0]
	}

	s.current = append(s.current, frame...)

	if speech {
		s.silence = 0
	} else {
		s.silence++
	}

	if s.silence >= s.config.SilenceFrames || (s.config.MaxSamples > 0 && len(s.current) >= s.config.MaxSamples) {
		return s.flush(), true, nil
	}

	return nil, false, nil
}

// Flush returns whatever speech is buffered, if any
func (s *Segmenter) Flush() ([]int16, bool) {
	if !s.speaking || len(s.current) == 0 {
		s.Reset()
		return nil, false
	}
	return s.flush(), true
}

// Reset drops buffered audio
func (s *Segmenter) Reset() {
	s.preRoll = s.preRoll[:0]
	s.current = nil
	s.speaking = false
	s.silence = 0
}

func (s *Segmenter) flush() []int16 {
	out := s.current
	s.current = nil
	s.speaking = false
	s.silence = 0
	return out
}

func (s *Segmenter) keepPreRoll(frame []int16) {
	if s.config.PreRollFrames <= 0 {
		return
	}
	cp := make([]int16, len(frame))
	copy(cp, frame)
	s.preRoll = append(s.preRoll, cp)
	if len(s.preRoll) > s.config.PreRollFrames {
		s.preRoll = s.preRoll[1:]
	}
}
