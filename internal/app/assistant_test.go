package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/voxwake/internal/audio"
	"github.com/emmett/voxwake/internal/commands"
	"github.com/emmett/voxwake/internal/output"
	"github.com/emmett/voxwake/internal/sound"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// scriptSource hands out limit frames, each advancing the clock by step,
// then cancels the run.
type scriptSource struct {
	clock    *fakeClock
	step     time.Duration
	limit    int
	cancel   context.CancelFunc
	startErr error

	frames  int
	started bool
	stopped bool
}

func (s *scriptSource) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *scriptSource) Read(frame []int16) error {
	if s.frames >= s.limit {
		if s.cancel != nil {
			s.cancel()
		}
		return audio.ErrCaptureStopped
	}
	s.frames++
	s.clock.Advance(s.step)
	return nil
}

func (s *scriptSource) FrameLength() int { return 4 }

func (s *scriptSource) Stop() error {
	s.stopped = true
	return nil
}

type fakeDetector struct {
	source  *scriptSource
	at      map[int]int
	initErr error
	inits   int
	calls   int
}

func (d *fakeDetector) Init() error {
	d.inits++
	return d.initErr
}

func (d *fakeDetector) OnFrame(frame []int16) (int, bool) {
	d.calls++
	idx, ok := d.at[d.source.frames]
	return idx, ok
}

type fakeRecognizer struct {
	source *scriptSource
	texts  map[int]string
	every  string
	calls  []int
	resets int
}

func (r *fakeRecognizer) Init() error { return nil }

func (r *fakeRecognizer) Recognize(frame []int16) (string, bool) {
	r.calls = append(r.calls, r.source.frames)
	if t, ok := r.texts[r.source.frames]; ok {
		return t, true
	}
	if r.every != "" {
		return r.every, true
	}
	return "", false
}

func (r *fakeRecognizer) Reset() { r.resets++ }

type playback struct {
	path     string
	blocking bool
}

type fakePlayer struct {
	plays []playback
}

func (p *fakePlayer) Play(path string, blocking bool) {
	p.plays = append(p.plays, playback{path, blocking})
}

type fakeExecutor struct {
	executed []string
	err      error
}

func (e *fakeExecutor) Execute(ctx context.Context, entry commands.Entry) (commands.Outcome, error) {
	e.executed = append(e.executed, entry.Path())
	if e.err != nil {
		return commands.Outcome{Path: entry.Path()}, e.err
	}
	return commands.Outcome{Path: entry.Path(), Terminate: entry.Type == commands.TypeTerminate}, nil
}

type memJournal struct {
	events []output.Event
}

func (j *memJournal) WriteEvent(e output.Event) error {
	j.events = append(j.events, e)
	return nil
}

func (j *memJournal) kinds() []output.EventKind {
	var out []output.EventKind
	for _, e := range j.events {
		out = append(out, e.Kind)
	}
	return out
}

type chanTrigger chan struct{}

func (c chanTrigger) Triggered() <-chan struct{} { return c }

type harness struct {
	ctx         context.Context
	clock       *fakeClock
	source      *scriptSource
	detector    *fakeDetector
	recognizer  *fakeRecognizer
	player      *fakePlayer
	executor    *fakeExecutor
	journal     *memJournal
	cfg         AssistantConfig
	transitions [][2]State
}

func newHarness(t *testing.T, soundFiles ...string) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fs := afero.NewMemMapFs()
	for _, f := range soundFiles {
		require.NoError(t, afero.WriteFile(fs, f, []byte{0}, 0644))
	}

	reg, err := commands.NewRegistry(
		commands.Entry{Pack: "home", ID: "lights", Type: commands.TypeCLI, Exe: "lights", Phrases: []string{"turn on the lights"}},
		commands.Entry{Pack: "system", ID: "bye", Type: commands.TypeTerminate, Phrases: []string{"goodbye"}},
	)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	source := &scriptSource{clock: clock, step: 100 * time.Millisecond, limit: 40, cancel: cancel}

	h := &harness{
		ctx:        ctx,
		clock:      clock,
		source:     source,
		detector:   &fakeDetector{source: source},
		recognizer: &fakeRecognizer{source: source},
		player:     &fakePlayer{},
		executor:   &fakeExecutor{},
		journal:    &memJournal{},
	}
	h.cfg = AssistantConfig{
		Source:        source,
		Detector:      h.detector,
		Recognizer:    h.recognizer,
		Player:        h.player,
		Sounds:        sound.NewResolver(fs, "/sound", "jarvis", "jarvis-og"),
		Matcher:       commands.NewMatcher(reg, commands.DefaultFuzzyThreshold),
		Executor:      h.executor,
		FillerPhrases: []string{"hey jarvis", "jarvis", "please"},
		WarmupMute:    600 * time.Millisecond,
		WaitDelay:     10 * time.Second,
		Journal:       h.journal,
		Clock:         clock.Now,
	}
	return h
}

func (h *harness) run(t *testing.T) (*Assistant, error) {
	t.Helper()
	a, err := NewAssistant(h.cfg)
	require.NoError(t, err)
	a.States().AddListener(func(from, to State) {
		h.transitions = append(h.transitions, [2]State{from, to})
	})
	return a, a.Run(h.ctx)
}

var oneSession = [][2]State{
	{StateWakeIdle, StateListening},
	{StateListening, StateWakeIdle},
}

func TestWakeWarmupAndCommand(t *testing.T) {
	h := newHarness(t, "/sound/jarvis/activate.mp3", "/sound/jarvis/run.wav")
	h.detector.at = map[int]int{5: 0}
	h.recognizer.texts = map[int]string{12: "Hey Jarvis turn on the lights"}

	a, err := h.run(t)
	require.NoError(t, err)

	// wake at frame 5; frames 6-10 fall inside the 600ms warmup
	require.NotEmpty(t, h.recognizer.calls)
	assert.Equal(t, 11, h.recognizer.calls[0])

	assert.Equal(t, []string{"home/lights"}, h.executor.executed)
	assert.Equal(t, []playback{
		{"/sound/jarvis/run.wav", false},
		{"/sound/jarvis/activate.mp3", false},
	}, h.player.plays)
	assert.Equal(t, oneSession, h.transitions)
	assert.Equal(t, StateWakeIdle, a.States().Current())

	require.Len(t, h.journal.events, 3)
	assert.Equal(t, []output.EventKind{output.EventWake, output.EventRecognized, output.EventExecuted}, h.journal.kinds())
	assert.Equal(t, "turn on the lights", h.journal.events[1].Text)
	assert.True(t, h.source.stopped)
}

func TestTimeoutPlaysFirstExistingCancelCue(t *testing.T) {
	h := newHarness(t,
		"/sound/jarvis/not_found.wav",
		"/sound/jarvis-og/ok1.wav",
		"/sound/jarvis-og/not_found.wav",
	)
	h.cfg.WarmupMute = 300 * time.Millisecond
	h.cfg.WaitDelay = time.Second
	h.detector.at = map[int]int{2: 0}

	_, err := h.run(t)
	require.NoError(t, err)

	require.Len(t, h.player.plays, 3)
	assert.Equal(t, playback{"/sound/jarvis/ok1.wav", false}, h.player.plays[1])
	assert.Equal(t, playback{"/sound/jarvis/not_found.wav", true}, h.player.plays[2])

	// timeout is the first frame past one second: frame 2 + 11
	assert.Equal(t, 13, h.recognizer.calls[len(h.recognizer.calls)-1])
	assert.Equal(t, []output.EventKind{output.EventWake, output.EventTimeout}, h.journal.kinds())
	assert.Equal(t, oneSession, h.transitions)
}

func TestCancelCueChainOrder(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{
			name:  "active voice cancel cue",
			files: []string{"/sound/jarvis/cancel.mp3", "/sound/jarvis-og/cancel.mp3"},
			want:  "/sound/jarvis/cancel.mp3",
		},
		{
			name:  "default voice cancel cue before root",
			files: []string{"/sound/cancel.mp3", "/sound/jarvis-og/cancel.mp3"},
			want:  "/sound/jarvis-og/cancel.mp3",
		},
		{
			name:  "root cancel cue",
			files: []string{"/sound/cancel.mp3", "/sound/jarvis-og/not_found.wav"},
			want:  "/sound/cancel.mp3",
		},
		{
			name:  "default voice cancel cue",
			files: []string{"/sound/jarvis-og/cancel.mp3", "/sound/jarvis/not_found.wav"},
			want:  "/sound/jarvis-og/cancel.mp3",
		},
		{
			name:  "default voice fallback cue",
			files: []string{"/sound/jarvis-og/not_found.wav"},
			want:  "/sound/jarvis-og/not_found.wav",
		},
		{
			name:  "nothing found",
			files: []string{"/sound/jarvis-og/ok1.wav"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.files...)
			a, err := NewAssistant(h.cfg)
			require.NoError(t, err)

			a.playCancelCue()

			if tt.want == "" {
				assert.Empty(t, h.player.plays)
				return
			}
			assert.Equal(t, []playback{{tt.want, true}}, h.player.plays)
		})
	}
}

func TestRecorderStartFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.source.startErr = errors.New("no capture device")

	_, err := h.run(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecorderStart)
	assert.Equal(t, 0, h.detector.inits)
	assert.Equal(t, 0, h.source.frames)
	assert.Equal(t, 1, ExitCode(err))

	var code int
	orig := exitFunc
	exitFunc = func(c int) { code = c }
	t.Cleanup(func() { exitFunc = orig })
	Close(nil, ExitCode(err))
	assert.Equal(t, 1, code)
}

func TestWakeInitFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.detector.initErr = errors.New("model missing")

	_, err := h.run(t)
	assert.ErrorIs(t, err, ErrWakeInit)
	assert.Equal(t, 0, h.source.frames)
}

func TestFillerOnlyTextKeepsListening(t *testing.T) {
	h := newHarness(t, "/sound/jarvis/not_found.wav")
	h.cfg.WarmupMute = 0
	h.cfg.WaitDelay = time.Second
	h.detector.at = map[int]int{2: 0}
	h.recognizer.texts = map[int]string{5: "Jarvis please", 6: "  JARVIS "}

	_, err := h.run(t)
	require.NoError(t, err)

	// the session clock is untouched by empty results
	assert.Equal(t, 13, h.recognizer.calls[len(h.recognizer.calls)-1])
	assert.Empty(t, h.executor.executed)
	assert.Equal(t, []output.EventKind{output.EventWake, output.EventTimeout}, h.journal.kinds())
}

func TestUnmatchedTextContinuesSession(t *testing.T) {
	h := newHarness(t)
	h.cfg.WarmupMute = 0
	h.detector.at = map[int]int{1: 0}
	h.recognizer.texts = map[int]string{
		3: "open the pod bay doors",
		6: "turn on the lights please",
	}

	_, err := h.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"home/lights"}, h.executor.executed)
	assert.Equal(t, []output.EventKind{
		output.EventWake,
		output.EventRecognized, output.EventUnmatched,
		output.EventRecognized, output.EventExecuted,
	}, h.journal.kinds())
	assert.Equal(t, oneSession, h.transitions)
}

func TestCommandFailureEndsSession(t *testing.T) {
	h := newHarness(t, "/sound/jarvis/cancel.mp3")
	h.cfg.WarmupMute = 0
	h.executor.err = errors.New("exit status 1")
	h.detector.at = map[int]int{1: 0, 10: 0}
	h.recognizer.texts = map[int]string{3: "turn on the lights", 4: "turn on the lights"}

	_, err := h.run(t)
	require.NoError(t, err)

	// the failed command is not retried within the session and no
	// cancel cue is played
	assert.Equal(t, []string{"home/lights"}, h.executor.executed[:1])
	for _, p := range h.player.plays {
		assert.NotEqual(t, "/sound/jarvis/cancel.mp3", p.path)
	}
	assert.Equal(t, output.EventFailed, h.journal.events[2].Kind)
	assert.Equal(t, "exit status 1", h.journal.events[2].Error)
}

func TestTerminateCommandStopsRun(t *testing.T) {
	h := newHarness(t)
	h.cfg.WarmupMute = 0
	h.detector.at = map[int]int{1: 0}
	h.recognizer.texts = map[int]string{2: "goodbye"}

	_, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"system/bye"}, h.executor.executed)
	assert.Equal(t, 2, h.source.frames)
}

func TestManualTrigger(t *testing.T) {
	h := newHarness(t)
	h.cfg.WarmupMute = 0
	trigger := make(chanTrigger, 1)
	trigger <- struct{}{}
	h.cfg.Trigger = trigger
	h.recognizer.texts = map[int]string{3: "turn on the lights"}

	_, err := h.run(t)
	require.NoError(t, err)

	require.NotEmpty(t, h.journal.events)
	wake := h.journal.events[0]
	assert.Equal(t, "manual", wake.Trigger)
	require.NotNil(t, wake.Index)
	assert.Equal(t, ManualIndex, *wake.Index)
	assert.Equal(t, []string{"home/lights"}, h.executor.executed)
}

func TestWakeDetectorNotPolledWhileListening(t *testing.T) {
	h := newHarness(t)
	h.cfg.WaitDelay = 500 * time.Millisecond
	h.cfg.WarmupMute = 0
	h.detector.at = map[int]int{1: 0, 3: 1}
	h.source.limit = 10

	_, err := h.run(t)
	require.NoError(t, err)

	// frames 2-7 belong to the session; frame 3's hit is never seen
	assert.Equal(t, 1+(10-7), h.detector.calls)
	assert.Len(t, h.transitions, 2)
}

func TestNewAssistantRequiresCollaborators(t *testing.T) {
	_, err := NewAssistant(AssistantConfig{})
	assert.Error(t, err)
}
