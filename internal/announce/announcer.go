package announce

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tokenline/queue-display/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	defaultDelay   = time.Second
)

// Stage names for the two-part cue: a chime first, speech after a fixed
// delay so the chime has died down.
const (
	StageChime  = "chime"
	StageSpeech = "speech"
)

// Announcement is one audio cue delivered to display clients.
type Announcement struct {
	Stage   string `json:"stage"`
	Number  string `json:"number"`
	Counter string `json:"counter"`
	Text    string `json:"text,omitempty"`
}

// Sink delivers announcements to whatever plays them.
type Sink interface {
	Publish(ctx context.Context, a Announcement) error
}

type job struct {
	number  string
	counter string
}

// Announcer routes announcement jobs to a fixed set of workers using
// consistent hashing on the counter identifier, so cues for the same counter
// play in order and never overlap. Delivery is best-effort and fire-and-
// forget: a full queue drops the cue, a failed publish is logged only.
type Announcer struct {
	workers []chan job
	sink    Sink
	clock   clockwork.Clock
	delay   time.Duration
	log     zerolog.Logger
}

// NewAnnouncer creates an Announcer with numWorkers sharded workers and the
// given chime-to-speech delay. Zero values fall back to defaults.
func NewAnnouncer(numWorkers int, delay time.Duration, sink Sink, clock clockwork.Clock, log zerolog.Logger) *Announcer {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if delay <= 0 {
		delay = defaultDelay
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	a := &Announcer{
		workers: make([]chan job, numWorkers),
		sink:    sink,
		clock:   clock,
		delay:   delay,
		log:     log,
	}
	for i := range a.workers {
		a.workers[i] = make(chan job, channelBuffer)
	}
	return a
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (a *Announcer) Start(ctx context.Context) {
	for i, ch := range a.workers {
		go a.runWorker(ctx, i, ch)
	}
}

// Announce schedules the two-stage cue for a called token. Never blocks.
func (a *Announcer) Announce(_ context.Context, number, counter string) {
	select {
	case a.workers[a.shardIndex(counter)] <- job{number: number, counter: counter}:
	default:
		a.log.Warn().Str("number", number).Str("counter", counter).Msg("announcement queue full, cue dropped")
	}
}

// SpeechText renders the spoken announcement, reading the token's characters
// individually ("A001" → "A 0 0 1").
func SpeechText(number, counter string) string {
	spaced := strings.Join(strings.Split(number, ""), " ")
	return fmt.Sprintf("Token %s, proceed to Counter %s", spaced, counter)
}

// shardIndex maps a counter deterministically to a worker index.
func (a *Announcer) shardIndex(counter string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(counter))
	return int(h.Sum32()) % len(a.workers)
}

func (a *Announcer) runWorker(ctx context.Context, id int, ch <-chan job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-ch:
			if !ok {
				return
			}
			a.play(ctx, id, j)
		}
	}
}

func (a *Announcer) play(ctx context.Context, id int, j job) {
	a.publish(ctx, id, Announcement{Stage: StageChime, Number: j.number, Counter: j.counter})

	timer := a.clock.NewTimer(a.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.Chan():
	}

	a.publish(ctx, id, Announcement{
		Stage:   StageSpeech,
		Number:  j.number,
		Counter: j.counter,
		Text:    SpeechText(j.number, j.counter),
	})
}

func (a *Announcer) publish(ctx context.Context, id int, cue Announcement) {
	if err := a.sink.Publish(ctx, cue); err != nil {
		metrics.AnnounceFailuresTotal.Inc()
		a.log.Warn().Err(err).
			Str("stage", cue.Stage).
			Str("number", cue.Number).
			Int("worker_id", id).
			Msg("announcement publish failed")
		return
	}
	metrics.AnnouncementsTotal.WithLabelValues(cue.Stage).Inc()
}
