package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fixd/internal/diagnose"
	"github.com/fyrsmithlabs/fixd/internal/fix"
	"github.com/fyrsmithlabs/fixd/internal/ollama"
)

const instrumentationName = "github.com/fyrsmithlabs/fixd/internal/session"

const enrichSystemPrompt = "You are a debugging assistant. In two or three short sentences, explain the likely cause of the error and suggest a concrete fix."

// Gateway is the slice of the inference service the orchestrator consumes.
type Gateway interface {
	IsReachable(ctx context.Context) bool
	ListLocalModels(ctx context.Context) ([]string, error)
	EnsureModel(ctx context.Context, name string, onProgress func(ollama.PullProgress)) error
	Complete(ctx context.Context, prompt string, opts ollama.Options) (string, error)
}

// Synthesizer produces candidate fixes for a diagnosis.
type Synthesizer interface {
	Synthesize(ctx context.Context, d *diagnose.Diagnosis, dc diagnose.Context) []fix.Fix
}

// Applier executes a fix's action.
type Applier interface {
	Apply(ctx context.Context, f fix.Fix) error
}

// Service orchestrates debugging sessions: it drives classification,
// enrichment, fix synthesis and fix application against the Store.
type Service struct {
	store   *Store
	gateway Gateway
	synth   Synthesizer
	applier Applier
	model   string
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewService creates the session orchestrator. model is the default model
// Initialize guarantees to be present locally.
func NewService(store *Store, gateway Gateway, synth Synthesizer, applier Applier, model string, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if synth == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if applier == nil {
		return nil, fmt.Errorf("applier is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		gateway: gateway,
		synth:   synth,
		applier: applier,
		model:   model,
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
	}, nil
}

// Initialize is the startup gate: it confirms the gateway is reachable and
// that the default model is present locally, pulling it once if not. It is
// a precondition for session work, not part of the per-session lifecycle.
func (s *Service) Initialize(ctx context.Context, onProgress func(ollama.PullProgress)) error {
	ctx, span := s.tracer.Start(ctx, "session.initialize")
	defer span.End()
	span.SetAttributes(attribute.String("model", s.model))

	if !s.gateway.IsReachable(ctx) {
		span.SetStatus(codes.Error, ErrGatewayUnavailable.Error())
		return ErrGatewayUnavailable
	}

	models, err := s.gateway.ListLocalModels(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	present := false
	for _, m := range models {
		if strings.TrimSuffix(m, ":latest") == strings.TrimSuffix(s.model, ":latest") {
			present = true
			break
		}
	}
	if !present {
		if err := s.gateway.EnsureModel(ctx, s.model, onProgress); err != nil {
			span.RecordError(err)
			return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
	}

	s.logger.Debug("gateway initialized", zap.String("model", s.model))
	return nil
}

// CreateSession registers a captured failure and returns the session ID.
// It never fails.
func (s *Service) CreateSession(dc diagnose.Context) string {
	sess := s.store.Create(dc)
	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("command", dc.Command),
	)
	return sess.ID
}

// AnalyzeError classifies the session's captured output and enriches the
// diagnosis through the gateway. A nil diagnosis with nil error means there
// was nothing to diagnose; the session is left untouched. Calling again on
// an already-classified session returns the stored diagnosis.
func (s *Service) AnalyzeError(ctx context.Context, id string) (*diagnose.Diagnosis, error) {
	ctx, span := s.tracer.Start(ctx, "session.analyze_error")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id))

	sess, ok := s.store.Get(id)
	if !ok {
		span.SetStatus(codes.Error, ErrSessionNotFound.Error())
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if sess.Diagnosis != nil {
		return sess.Diagnosis, nil
	}

	d := diagnose.Classify(sess.Context)
	if d == nil {
		// Nothing to diagnose; the session stays in created.
		return nil, nil
	}
	span.SetAttributes(
		attribute.String("category", string(d.Category)),
		attribute.Float64("confidence", d.Confidence),
	)

	s.enrich(ctx, d, sess.Context)

	err := s.store.Update(id, func(sess *Session) error {
		if sess.Diagnosis != nil {
			d = sess.Diagnosis
			return nil
		}
		sess.Diagnosis = d
		sess.State = StateClassified
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("error classified",
		zap.String("session_id", id),
		zap.String("category", string(d.Category)),
		zap.Float64("confidence", d.Confidence),
	)
	return d, nil
}

// enrich asks the gateway to elaborate on the diagnosis. On success the
// model text replaces the suggestion and the pattern-derived hint moves to
// PatternHint; on failure the deterministic hint stays in place. Enrichment
// never alters confidence.
func (s *Service) enrich(ctx context.Context, d *diagnose.Diagnosis, dc diagnose.Context) {
	payload, err := json.Marshal(struct {
		Command string `json:"command"`
		Dir     string `json:"dir"`
	}{Command: dc.Command, Dir: dc.Dir})
	if err != nil {
		return
	}

	errText := dc.Stderr
	if strings.TrimSpace(errText) == "" {
		errText = dc.Stdout
	}
	prompt := fmt.Sprintf("Error output:\n%s\n\nExecution context: %s", errText, payload)

	text, err := s.gateway.Complete(ctx, prompt, ollama.Options{System: enrichSystemPrompt})
	if err != nil {
		s.logger.Warn("enrichment failed, keeping pattern suggestion", zap.Error(err))
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	d.PatternHint = d.Suggestion
	d.Suggestion = text
}

// GenerateFixes synthesizes candidate fixes for a classified session. The
// stored list may be empty, which is a normal "no automatic fix" outcome.
// Calling again returns the stored list.
func (s *Service) GenerateFixes(ctx context.Context, id string) ([]fix.Fix, error) {
	ctx, span := s.tracer.Start(ctx, "session.generate_fixes")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id))

	sess, ok := s.store.Get(id)
	if !ok {
		span.SetStatus(codes.Error, ErrSessionNotFound.Error())
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if sess.Diagnosis == nil {
		span.SetStatus(codes.Error, ErrNoDiagnosis.Error())
		return nil, fmt.Errorf("%w: %s", ErrNoDiagnosis, id)
	}
	if sess.State == StateFixesReady || sess.State == StateApplied {
		return sess.Fixes, nil
	}

	fixes := s.synth.Synthesize(ctx, sess.Diagnosis, sess.Context)
	if fixes == nil {
		fixes = []fix.Fix{}
	}

	err := s.store.Update(id, func(sess *Session) error {
		if sess.State == StateFixesReady || sess.State == StateApplied {
			fixes = sess.Fixes
			return nil
		}
		sess.Fixes = fixes
		sess.State = StateFixesReady
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("fix_count", len(fixes)))
	s.logger.Info("fixes generated",
		zap.String("session_id", id),
		zap.Int("count", len(fixes)),
	)
	return fixes, nil
}

// ApplyFix executes the fix at index exactly once. On success the session
// becomes applied; on failure the action's error is returned verbatim and
// the session stays in fixes_ready so the caller can try another fix.
func (s *Service) ApplyFix(ctx context.Context, id string, index int) error {
	ctx, span := s.tracer.Start(ctx, "session.apply_fix")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", id),
		attribute.Int("fix_index", index),
	)

	sess, ok := s.store.Get(id)
	if !ok {
		span.SetStatus(codes.Error, ErrFixNotFound.Error())
		return fmt.Errorf("%w: session %s", ErrFixNotFound, id)
	}
	if sess.State != StateFixesReady || index < 0 || index >= len(sess.Fixes) {
		span.SetStatus(codes.Error, ErrFixNotFound.Error())
		return fmt.Errorf("%w: session %s index %d", ErrFixNotFound, id, index)
	}

	chosen := sess.Fixes[index]
	if err := s.applier.Apply(ctx, chosen); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("fix application failed",
			zap.String("session_id", id),
			zap.Int("fix_index", index),
			zap.Error(err),
		)
		return err
	}

	err := s.store.Update(id, func(sess *Session) error {
		sess.Applied = true
		sess.State = StateApplied
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("fix applied",
		zap.String("session_id", id),
		zap.String("description", chosen.Description),
	)
	return nil
}

// GetSession is a read-only lookup; ok is false for unknown IDs.
func (s *Service) GetSession(id string) (Session, bool) {
	return s.store.Get(id)
}
