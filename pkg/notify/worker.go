package notify

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/yarrow/pkg/appcontext"
	"github.com/Ramsey-B/yarrow/pkg/email"
	"github.com/Ramsey-B/yarrow/pkg/events"
	"github.com/Ramsey-B/yarrow/pkg/metrics"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/schedule"
	"github.com/Ramsey-B/yarrow/pkg/timeofday"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

var (
	// ErrWorkerStopped is returned when the worker is stopped
	ErrWorkerStopped = errors.New("reminder worker stopped")

	// ErrWorkerAlreadyRunning is returned when trying to start an already running worker
	ErrWorkerAlreadyRunning = errors.New("reminder worker already running")
)

const (
	// DefaultPollInterval is the default interval between reminder cycles.
	// It is also the single-fire window width: each cycle owns exactly the
	// reminders whose target instant falls within one interval of now.
	DefaultPollInterval = 60 * time.Second

	// DefaultLookaheadDays is how far past today to expand schedules
	DefaultLookaheadDays = 1

	// DefaultLookbackDays is how far back to fetch completion records
	DefaultLookbackDays = 7

	// DefaultExpandWorkers bounds concurrent per-user plan expansions
	DefaultExpandWorkers = 8
)

// PlanSource provides the active treatment plans the worker expands.
type PlanSource interface {
	// ListActivePatientIDs returns the IDs of every patient with an active plan
	ListActivePatientIDs(ctx context.Context) ([]uuid.UUID, error)

	// GetActivePlan returns the patient's active plan with items, or nil when none exists
	GetActivePlan(ctx context.Context, patientID uuid.UUID) (*models.Plan, error)

	// ListPlanRules returns recurrence rules for the plan's items, keyed by item ID
	ListPlanRules(ctx context.Context, planID uuid.UUID) (map[uuid.UUID][]models.RecurrenceRule, error)
}

// DrugNameResolver resolves drug IDs to display names.
type DrugNameResolver interface {
	ResolveNames(ctx context.Context, drugIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// CompletionSource provides dose completion records.
type CompletionSource interface {
	// ListRecent returns the given users' completion records created at or
	// after since
	ListRecent(ctx context.Context, userIDs []uuid.UUID, since time.Time) ([]models.CompletionRecord, error)
}

// ConfigSource provides per-user notification preferences.
type ConfigSource interface {
	// GetConfigs returns notification configs keyed by user ID; users without
	// a stored config are absent from the result
	GetConfigs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.NotificationConfig, error)
}

// UserSource provides user records for email addressing.
type UserSource interface {
	GetUsersByIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// EventEmitter publishes adherence lifecycle events.
type EventEmitter interface {
	EmitDoseMissed(ctx context.Context, event events.AdherenceEvent) error
	EmitReminderSent(ctx context.Context, event events.AdherenceEvent) error
}

// Config holds configuration for the reminder worker
type Config struct {
	// PollInterval is how often to run a reminder cycle
	PollInterval time.Duration

	// LookaheadDays is how far past today to expand schedules
	LookaheadDays int

	// LookbackDays is how far back to fetch completion records
	LookbackDays int

	// ExpandWorkers bounds concurrent per-user plan expansions
	ExpandWorkers int
}

// DefaultConfig returns the default worker configuration
func DefaultConfig() Config {
	return Config{
		PollInterval:  DefaultPollInterval,
		LookaheadDays: DefaultLookaheadDays,
		LookbackDays:  DefaultLookbackDays,
		ExpandWorkers: DefaultExpandWorkers,
	}
}

// Worker periodically expands active plans, diffs the result against
// completion records, and emails users about doses they have not confirmed.
type Worker struct {
	plans       PlanSource
	drugs       DrugNameResolver
	completions CompletionSource
	configs     ConfigSource
	users       UserSource
	sender      email.Sender
	emitter     EventEmitter
	config      Config
	logger      ectologger.Logger

	// Coordination
	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewWorker creates a new reminder worker. emitter may be nil when event
// publishing is disabled.
func NewWorker(
	plans PlanSource,
	drugs DrugNameResolver,
	completions CompletionSource,
	configs ConfigSource,
	users UserSource,
	sender email.Sender,
	emitter EventEmitter,
	config Config,
	logger ectologger.Logger,
) *Worker {
	// Apply defaults
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.LookaheadDays <= 0 {
		config.LookaheadDays = DefaultLookaheadDays
	}
	if config.LookbackDays <= 0 {
		config.LookbackDays = DefaultLookbackDays
	}
	if config.ExpandWorkers <= 0 {
		config.ExpandWorkers = DefaultExpandWorkers
	}

	return &Worker{
		plans:       plans,
		drugs:       drugs,
		completions: completions,
		configs:     configs,
		users:       users,
		sender:      sender,
		emitter:     emitter,
		config:      config,
		logger:      logger,
		stopCh:      make(chan struct{}),
		stoppedC:    make(chan struct{}),
	}
}

// Start starts the worker
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrWorkerAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "Worker.Start")
	defer span.End()

	w.logger.WithContext(ctx).Infof("Starting reminder worker: poll_interval=%s lookahead_days=%d expand_workers=%d",
		w.config.PollInterval, w.config.LookaheadDays, w.config.ExpandWorkers)

	go w.pollLoop(ctx)

	w.logger.WithContext(ctx).Info("Reminder worker started")
	return nil
}

// Stop stops the worker gracefully
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.logger.WithContext(ctx).Info("Stopping reminder worker...")

	close(w.stopCh)

	select {
	case <-w.stoppedC:
		w.logger.WithContext(ctx).Info("Reminder worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WithContext(ctx).Warn("Reminder worker shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the worker is running
func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// pollLoop runs reminder cycles until stopped
func (w *Worker) pollLoop(ctx context.Context) {
	defer close(w.stoppedC)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.runCycle(ctx)

	for {
		select {
		case <-w.stopCh:
			w.logger.WithContext(ctx).Debug("Reminder worker poll loop stopping")
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	// Each cycle gets its own run id so its log lines can be correlated
	ctx = appcontext.SetRunID(ctx, uuid.New().String())

	start := time.Now()
	if err := w.RunCycle(ctx, time.Now().UTC()); err != nil {
		metrics.ReminderCyclesTotal.WithLabelValues("error").Inc()
	} else {
		metrics.ReminderCyclesTotal.WithLabelValues("success").Inc()
	}
	metrics.ReminderCycleDuration.Observe(time.Since(start).Seconds())
}

// RunCycle runs a single reminder cycle at the given instant. Per-user
// failures are logged and skipped; the cycle only errors when a shared
// dependency (the plan listing or completion fetch) fails.
func (w *Worker) RunCycle(ctx context.Context, now time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "Worker.RunCycle")
	defer span.End()

	w.logger.WithContext(ctx).WithField("run_id", appcontext.GetRunID(ctx)).Debug("Running reminder cycle")

	patientIDs, err := w.plans.ListActivePatientIDs(ctx)
	if err != nil {
		w.logger.WithContext(ctx).WithError(err).Error("Failed to list active patients")
		return err
	}

	if len(patientIDs) == 0 {
		w.logger.WithContext(ctx).Debug("No active patients")
		return nil
	}

	scheduled := w.collect(ctx, patientIDs, now)

	since := now.AddDate(0, 0, -w.config.LookbackDays)
	completions, err := w.completions.ListRecent(ctx, patientIDs, since)
	if err != nil {
		w.logger.WithContext(ctx).WithError(err).Error("Failed to list completion records")
		return err
	}

	missed := FindMissed(scheduled, completions)
	metrics.MissedDosesTotal.Add(float64(len(missed)))

	if len(missed) == 0 {
		w.logger.WithContext(ctx).Debug("No missed doses")
		return nil
	}

	sent, skipped := w.dispatch(ctx, missed, now)

	w.logger.WithContext(ctx).Infof("Reminder cycle completed: scheduled=%d missed=%d sent=%d skipped=%d duration=%s",
		len(scheduled), len(missed), sent, skipped, time.Since(now))
	return nil
}

// collect expands every patient's active plan within the cycle window using a
// bounded worker pool. A failing user is logged and dropped from this cycle.
func (w *Worker) collect(ctx context.Context, patientIDs []uuid.UUID, now time.Time) []ScheduledDose {
	ctx, span := tracing.StartSpan(ctx, "Worker.collect")
	defer span.End()

	windowStart := schedule.DateOf(now)
	windowEnd := windowStart.AddDate(0, 0, w.config.LookaheadDays)
	window := schedule.NewWindow(&windowStart, &windowEnd)

	var (
		mu        sync.Mutex
		scheduled []ScheduledDose
		wg        sync.WaitGroup
	)
	sem := make(chan struct{}, w.config.ExpandWorkers)

	for _, patientID := range patientIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(patientID uuid.UUID) {
			defer wg.Done()
			defer func() { <-sem }()

			doses, err := w.collectUser(ctx, patientID, window)
			if err != nil {
				metrics.ExpansionFailuresTotal.Inc()
				w.logger.WithContext(ctx).WithError(err).Warnf("Failed to expand schedule for user %s", patientID)
				return
			}

			mu.Lock()
			scheduled = append(scheduled, doses...)
			mu.Unlock()
		}(patientID)
	}
	wg.Wait()

	// Collection order depends on goroutine scheduling; re-sort so reminder
	// dispatch is deterministic across cycles.
	sortScheduled(scheduled)

	return scheduled
}

// collectUser expands one patient's active plan into scheduled doses. PRN and
// date-less occurrences never produce reminders.
func (w *Worker) collectUser(ctx context.Context, patientID uuid.UUID, window schedule.Window) ([]ScheduledDose, error) {
	start := time.Now()
	defer func() {
		metrics.ExpansionDuration.Observe(time.Since(start).Seconds())
	}()

	plan, err := w.plans.GetActivePlan(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if plan == nil || len(plan.Items) == 0 {
		return nil, nil
	}

	rulesByItem, err := w.plans.ListPlanRules(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	drugIDs := make([]uuid.UUID, 0, len(plan.Items))
	for _, item := range plan.Items {
		drugIDs = append(drugIDs, item.DrugID)
	}
	names, err := w.drugs.ResolveNames(ctx, drugIDs)
	if err != nil {
		// Reminders still go out without display names
		w.logger.WithContext(ctx).WithError(err).Warnf("Failed to resolve drug names for plan %s", plan.ID)
		names = map[uuid.UUID]string{}
	}
	for i := range plan.Items {
		plan.Items[i].DrugName = names[plan.Items[i].DrugID]
	}

	occurrences := schedule.Expand(plan.Items, rulesByItem, window)
	metrics.ExpansionOccurrencesTotal.Add(float64(len(occurrences)))

	doses := make([]ScheduledDose, 0, len(occurrences))
	for _, occ := range occurrences {
		if occ.Date == nil {
			continue
		}
		doses = append(doses, ScheduledDose{
			UserID:     patientID,
			PlanItemID: occ.PlanItemID,
			Date:       *occ.Date,
			Time:       occ.Time,
			DrugName:   occ.DrugName,
			Dosage:     occ.Dosage,
			Unit:       occ.Unit,
		})
	}
	return doses, nil
}

// dispatch sends a reminder for every missed dose this cycle owns.
func (w *Worker) dispatch(ctx context.Context, missed []ScheduledDose, now time.Time) (sent, skipped int) {
	ctx, span := tracing.StartSpan(ctx, "Worker.dispatch")
	defer span.End()

	userIDs := distinctUserIDs(missed)

	configs, err := w.configs.GetConfigs(ctx, userIDs)
	if err != nil {
		w.logger.WithContext(ctx).WithError(err).Error("Failed to load notification configs")
		return 0, len(missed)
	}
	users, err := w.users.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		w.logger.WithContext(ctx).WithError(err).Error("Failed to load users")
		return 0, len(missed)
	}

	for _, dose := range missed {
		cfg, ok := configs[dose.UserID]
		if !ok {
			metrics.RemindersSkippedTotal.WithLabelValues("no_config").Inc()
			skipped++
			continue
		}
		if !cfg.Enabled || !cfg.EmailEnabled {
			metrics.RemindersSkippedTotal.WithLabelValues("disabled").Inc()
			skipped++
			continue
		}

		offset, fire := ShouldFire(dose, cfg.NotifyMinutes, now, w.config.PollInterval)
		if !fire {
			continue
		}

		event := events.AdherenceEvent{
			UserID:        dose.UserID,
			PlanItemID:    dose.PlanItemID,
			DrugName:      dose.DrugName,
			ExpectedDate:  dose.Date.Format("2006-01-02"),
			ExpectedTime:  dose.Time,
			OffsetMinutes: offset,
		}
		w.emitDoseMissed(ctx, event)

		user, ok := users[dose.UserID]
		if !ok || user.Email == "" {
			metrics.RemindersSkippedTotal.WithLabelValues("no_email_address").Inc()
			skipped++
			continue
		}

		body := BuildReminderBody(dose, user.Username, loadLocation(cfg.Timezone))
		if err := w.sender.Send(ctx, user.Email, ReminderSubject, body); err != nil {
			// Send failures are not retried; the next matching offset window
			// belongs to a later dose instant, not this one.
			metrics.ReminderSendFailuresTotal.Inc()
			w.logger.WithContext(ctx).WithError(err).Warnf("Failed to send reminder to user %s for item %s",
				dose.UserID, dose.PlanItemID)
			continue
		}

		metrics.RemindersSentTotal.Inc()
		sent++
		w.emitReminderSent(ctx, event)
	}

	return sent, skipped
}

func (w *Worker) emitDoseMissed(ctx context.Context, event events.AdherenceEvent) {
	if w.emitter == nil {
		return
	}
	if err := w.emitter.EmitDoseMissed(ctx, event); err != nil {
		w.logger.WithContext(ctx).WithError(err).Warn("Failed to emit dose.missed event")
	}
}

func (w *Worker) emitReminderSent(ctx context.Context, event events.AdherenceEvent) {
	if w.emitter == nil {
		return
	}
	if err := w.emitter.EmitReminderSent(ctx, event); err != nil {
		w.logger.WithContext(ctx).WithError(err).Warn("Failed to emit reminder.sent event")
	}
}

func sortScheduled(doses []ScheduledDose) {
	sort.SliceStable(doses, func(i, j int) bool {
		a, b := doses[i], doses[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if c := timeofday.ParseOrMin(a.Time).Compare(timeofday.ParseOrMin(b.Time)); c != 0 {
			return c < 0
		}
		if c := bytes.Compare(a.UserID[:], b.UserID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(a.PlanItemID[:], b.PlanItemID[:]) < 0
	})
}

func distinctUserIDs(doses []ScheduledDose) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(doses))
	ids := make([]uuid.UUID, 0, len(doses))
	for _, dose := range doses {
		if _, ok := seen[dose.UserID]; ok {
			continue
		}
		seen[dose.UserID] = struct{}{}
		ids = append(ids, dose.UserID)
	}
	return ids
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
