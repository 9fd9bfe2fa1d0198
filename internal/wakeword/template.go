package wakeword

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/audio"
)

// DefaultTemplateThreshold is the DTW distance under which an utterance
// counts as a keyword
const DefaultTemplateThreshold = 0.35

type keywordTemplate struct {
	keyword  int
	name     string
	features [][]float64
}

// TemplateEngine compares each spoken utterance against reference
// recordings of the keywords. References live in
// <templates_dir>/<keyword>/*.wav, recorded mono at the capture rate.
type TemplateEngine struct {
	config    EngineConfig
	fs        afero.Fs
	logger    *zap.Logger
	extractor *featureExtractor

	mu          sync.Mutex
	templates   []keywordTemplate
	segmenter   *audio.Segmenter
	initialized bool
}

// NewTemplateEngine creates a template matching engine
func NewTemplateEngine(cfg EngineConfig) (*TemplateEngine, error) {
	if cfg.TemplatesDir == "" {
		return nil, fmt.Errorf("template wake engine requires a templates directory")
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultTemplateThreshold
	}
	return &TemplateEngine{
		config:    cfg,
		fs:        cfg.Fs,
		logger:    cfg.Logger,
		extractor: newFeatureExtractor(cfg.SampleRate),
	}, nil
}

// KeywordDir returns the directory holding references for a keyword
func KeywordDir(templatesDir, keyword string) string {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(keyword)), " ", "_")
	return filepath.Join(templatesDir, name)
}

// Init loads and featurizes every reference recording
func (t *TemplateEngine) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	var templates []keywordTemplate
	for i, kw := range t.config.Keywords {
		dir := KeywordDir(t.config.TemplatesDir, kw)
		paths, err := afero.Glob(t.fs, filepath.Join(dir, "*.wav"))
		if err != nil {
			return fmt.Errorf("failed to list templates in %s: %w", dir, err)
		}
		sort.Strings(paths)
		if len(paths) == 0 {
			return fmt.Errorf("no reference recordings for keyword %q in %s", kw, dir)
		}

		for _, p := range paths {
			pcm, err := audio.ReadWAV(t.fs, p)
			if err != nil {
				return err
			}
			if pcm.SampleRate != t.config.SampleRate {
				return fmt.Errorf("template %s has sample rate %d, want %d", p, pcm.SampleRate, t.config.SampleRate)
			}
			feats := t.extractor.Extract(trimSilence(pcm.Mono(), templateEnergyThreshold, t.config.SampleRate/100))
			if len(feats) == 0 {
				return fmt.Errorf("template %s is too short", p)
			}
			templates = append(templates, keywordTemplate{keyword: i, name: p, features: feats})
		}
	}

	segCfg := audio.DefaultSegmenterConfig()
	segCfg.SilenceFrames = 8
	segCfg.MaxSamples = t.config.SampleRate * maxKeywordSeconds
	segCfg.PreRollFrames = 2
	vad := audio.NewVAD(audio.VADConfig{EnergyThreshold: templateEnergyThreshold})

	t.templates = templates
	t.segmenter = audio.NewSegmenter(vad, segCfg)
	t.initialized = true
	t.logger.Info("Template wake-word engine ready", zap.Int("templates", len(templates)))
	return nil
}

// templateEnergyThreshold separates speech from background for segmentation
const templateEnergyThreshold = 0.01

// Process collects an utterance and scores it once speech ends
func (t *TemplateEngine) Process(frame []int16) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return 0, false
	}

	utterance, done, err := t.segmenter.Push(frame)
	if err != nil || !done {
		return 0, false
	}

	idx, dist := t.score(utterance)
	t.logger.Debug("template distance", zap.Int("keyword", idx), zap.Float64("distance", dist))
	if dist < t.config.Threshold {
		return idx, true
	}
	return 0, false
}

// score returns the keyword of the closest template and its distance
func (t *TemplateEngine) score(utterance []int16) (int, float64) {
	feats := t.extractor.Extract(trimSilence(utterance, templateEnergyThreshold, t.config.SampleRate/100))
	best, bestIdx := math.Inf(1), 0
	if len(feats) == 0 {
		return bestIdx, best
	}

	for _, tpl := range t.templates {
		// skip references whose length differs by more than a factor of two
		if len(feats) > 2*len(tpl.features) || 2*len(feats) < len(tpl.features) {
			continue
		}
		if d := dtwDistance(feats, tpl.features); d < best {
			best, bestIdx = d, tpl.keyword
		}
	}
	return bestIdx, best
}

// Close drops loaded templates
func (t *TemplateEngine) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.templates = nil
	t.segmenter = nil
	t.initialized = false
	return nil
}
