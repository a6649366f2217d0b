package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	httpclient "github.com/mutablelogic/go-gallery/pkg/httpclient"
	planner "github.com/mutablelogic/go-gallery/pkg/planner"
	progress "github.com/mutablelogic/go-gallery/pkg/progress"
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// BatchTransport uploads one batch of files as a single request.
type BatchTransport interface {
	UploadBatch(ctx context.Context, folder string, batch schema.Batch, fn httpclient.ProgressFunc) (*schema.UploadResponse, error)
}

// DirectClient authorizes, writes and registers one file at a time.
type DirectClient interface {
	Authorize(ctx context.Context, req schema.SignedURLRequest) (*schema.AuthorizationGrant, error)
	Transfer(ctx context.Context, grant schema.AuthorizationGrant, file schema.FileDescriptor, fn httpclient.ProgressFunc) error
	Register(ctx context.Context, req schema.RegisterUploadRequest) (*schema.RegisterUploadResponse, error)
}

// Session uploads a set of files to one collection. A session runs once.
type Session struct {
	opt
	collection    string
	files         []schema.FileDescriptor
	maxBatchBytes int64
	metrics       *metrics

	// Guards state
	mu    sync.Mutex
	state State

	// Guards the aggregator, which is updated from the goroutine sending
	// the request body
	pmu  sync.Mutex
	agg  *progress.Aggregator
	unit int
}

// State is the lifecycle state of a session.
type State int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	StateIdle State = iota
	StatePlanning
	StateTransferring
	StateFinalized
)

var (
	// ErrFinalized is returned when Run is called on a session which has
	// already run.
	ErrFinalized = errors.New("session is finalized")

	// ErrRunning is returned when Run is called while the session is running.
	ErrRunning = errors.New("session is running")
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a session which uploads files to the named collection. Files
// are planned into batches of at most maxBatchBytes, unless the session
// uses WithDirect. Exactly one of WithTransport or WithDirect is required.
func New(collection string, files []schema.FileDescriptor, maxBatchBytes int64, opts ...Opt) (*Session, error) {
	self := new(Session)
	if opt, err := applyOpts(opts); err != nil {
		return nil, err
	} else {
		self.opt = opt
	}

	// Check parameters
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("%w: missing collection name", schema.ErrBadParameter)
	}
	switch {
	case self.transport == nil && self.direct == nil:
		return nil, fmt.Errorf("%w: missing transport", schema.ErrBadParameter)
	case self.transport != nil && self.direct != nil:
		return nil, fmt.Errorf("%w: batch and direct transfer are exclusive", schema.ErrBadParameter)
	}

	// Metrics
	if m, err := newMetrics(self.meter); err != nil {
		return nil, err
	} else {
		self.metrics = m
	}

	self.collection = collection
	self.files = append([]schema.FileDescriptor(nil), files...)
	self.maxBatchBytes = maxBatchBytes
	self.agg = progress.New(names(files))

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StateTransferring:
		return "transferring"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// State returns the current state of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Collection returns the name of the collection the session uploads to.
func (s *Session) Collection() string {
	return s.collection
}

// Run plans the files and transfers the units in order. Failures are
// reported in the outcome rather than as an error; the error is only
// returned when the session has already run or is running.
//
// Cancelling ctx takes effect between units: the unit in flight runs to
// completion and the files of units not started are reported as cancelled.
func (s *Session) Run(ctx context.Context) (*schema.UploadOutcome, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}

	// OTEL span
	ctx, endFunc := otel.StartSpan(s.tracer, ctx, "upload.session")
	outcome := s.run(ctx)
	endFunc(outcomeError(outcome))

	// Finalize
	s.setState(StateFinalized)
	s.log.Info().
		Str("collection", s.collection).
		Int("succeeded", outcome.Succeeded).
		Int("failed", len(outcome.Failed)).
		Msg("upload finished")
	if s.completeFn != nil {
		s.completeFn(*outcome)
	}

	// Return the outcome
	return outcome, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (s *Session) run(ctx context.Context) *schema.UploadOutcome {
	outcome := &schema.UploadOutcome{Collection: s.collection}

	// Plan the units
	units, err := s.plan()
	if err != nil {
		s.log.Warn().Err(err).Str("collection", s.collection).Msg("planning failed")
		outcome.Failed = planningFailures(s.files, err)
		s.fail(names(s.files)...)
		return outcome
	}
	s.setState(StateTransferring)
	if len(units) == 0 {
		s.completeUnit(0)
		return outcome
	}

	// Transfer units in order, one at a time
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			for _, rest := range units[i:] {
				outcome.Failed = append(outcome.Failed, failures(rest.Files, schema.KindCancelled, schema.NewError(schema.KindCancelled, "", err, "not started before the upload was cancelled"))...)
				s.fail(rest.Names()...)
			}
			s.log.Warn().Str("collection", s.collection).Int("remaining", planner.Count(units[i:])).Msg("upload cancelled")
			break
		}

		// The unit in flight is not interrupted by cancellation
		fn := s.beginUnit(i, unit)
		uctx := context.WithoutCancel(ctx)
		if s.direct != nil {
			file := unit.Files[0]
			if err := s.transferFile(uctx, i, file, fn); err != nil {
				outcome.Failed = append(outcome.Failed, schema.Failure(file.Name, schema.KindTransfer, err))
				s.fail(file.Name)
				continue
			}
		} else if err := s.transferBatch(uctx, i, unit, fn); err != nil {
			outcome.Failed = append(outcome.Failed, failures(unit.Files, schema.KindTransport, err)...)
			s.fail(unit.Names()...)

			// A failed batch stops the session
			for _, rest := range units[i+1:] {
				outcome.Failed = append(outcome.Failed, failures(rest.Files, schema.KindAborted, schema.NewError(schema.KindAborted, "", err, "not attempted after batch %d failed", i))...)
				s.fail(rest.Names()...)
			}
			break
		}
		outcome.Succeeded += len(unit.Files)
		s.completeUnit(i)
	}

	// Return the outcome
	return outcome
}

// plan returns the units to transfer: batches, or one unit per file for
// direct transfer.
func (s *Session) plan() ([]schema.Batch, error) {
	if s.direct != nil {
		return planner.Each(s.files)
	}
	return planner.Plan(s.files, s.maxBatchBytes)
}

func (s *Session) transferBatch(ctx context.Context, i int, batch schema.Batch, fn httpclient.ProgressFunc) (err error) {
	ctx, endFunc := otel.StartSpan(s.tracer, ctx, "upload.batch")
	defer func() { endFunc(err) }()

	s.log.Debug().
		Str("collection", s.collection).
		Int("batch", i).
		Int("files", len(batch.Files)).
		Int64("bytes", batch.TotalBytes).
		Msg("batch started")
	_, err = s.transport.UploadBatch(ctx, s.collection, batch, fn)
	if err != nil {
		err = withKind(schema.KindTransport, "", err)
		s.log.Warn().Err(err).Str("collection", s.collection).Int("batch", i).Msg("batch failed")
	}
	s.metrics.record(ctx, "batch", err, len(batch.Files), batch.TotalBytes)
	return err
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		s.state = StatePlanning
		return nil
	case StateFinalized:
		return ErrFinalized
	default:
		return ErrRunning
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// beginUnit starts unit i and returns the function which receives its byte
// progress. Progress from a unit which is no longer in flight is dropped.
func (s *Session) beginUnit(i int, unit schema.Batch) httpclient.ProgressFunc {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	s.unit = i
	s.agg.Begin(unit.Files)
	s.emit()
	return func(written, total int64) {
		s.pmu.Lock()
		defer s.pmu.Unlock()
		if s.unit != i {
			return
		}
		s.agg.Update(written, total)
		s.emit()
	}
}

// completeUnit marks unit i as done.
func (s *Session) completeUnit(i int) {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	s.agg.Complete()
	s.unit = i + 1
	s.emit()
}

func (s *Session) fail(names ...string) {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	s.agg.Fail(names...)
	s.unit = -1
	s.emit()
}

// emit sends a progress snapshot. Called with pmu held.
func (s *Session) emit() {
	if s.progressFn != nil {
		s.progressFn(s.agg.Snapshot())
	}
}

////////////////////////////////////////////////////////////////////////////////
// HELPERS

func names(files []schema.FileDescriptor) []string {
	result := make([]string, 0, len(files))
	for _, f := range files {
		result = append(result, f.Name)
	}
	return result
}

func failures(files []schema.FileDescriptor, kind schema.ErrorKind, err error) []schema.FailedFile {
	result := make([]schema.FailedFile, 0, len(files))
	for _, f := range files {
		failed := schema.Failure(f.Name, kind, err)
		failed.Kind = kind
		result = append(result, failed)
	}
	return result
}

// planningFailures fails every file when planning fails. The file named by
// the error carries its detail.
func planningFailures(files []schema.FileDescriptor, err error) []schema.FailedFile {
	var e *schema.Error
	errors.As(err, &e)
	result := make([]schema.FailedFile, 0, len(files))
	for _, f := range files {
		if e != nil && e.File == f.Name {
			result = append(result, schema.Failure(f.Name, schema.KindPlanning, err))
		} else {
			result = append(result, schema.FailedFile{Name: f.Name, Kind: schema.KindPlanning, Detail: err.Error()})
		}
	}
	return result
}

// withKind returns err as an upload error of the given kind, keeping the
// detail of any upload error it wraps.
func withKind(kind schema.ErrorKind, file string, err error) error {
	var e *schema.Error
	if errors.As(err, &e) {
		if e.Kind == kind {
			return err
		}
		return schema.NewError(kind, file, err, "%s", e.Detail)
	}
	return schema.NewError(kind, file, err, "")
}

// outcomeError returns nil when every file succeeded, otherwise an error
// joining one upload error per distinct failure kind.
func outcomeError(outcome *schema.UploadOutcome) error {
	var result error
	seen := make(map[schema.ErrorKind]bool, len(outcome.Failed))
	for _, f := range outcome.Failed {
		if seen[f.Kind] {
			continue
		}
		seen[f.Kind] = true
		result = errors.Join(result, schema.NewError(f.Kind, f.Name, nil, f.Detail))
	}
	return result
}
