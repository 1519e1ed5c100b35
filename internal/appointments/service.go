package appointments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"dern-backend/internal/auth"
	"dern-backend/internal/cache"
	"dern-backend/internal/lock"
	"dern-backend/internal/metrics"
	"dern-backend/internal/models"
	"dern-backend/internal/notifications"
	"dern-backend/internal/schedule"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

var defaultWorkingHours = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

const (
	defaultCancellationNotice = 24 * time.Hour
	defaultCacheTTL           = 5 * time.Minute
	notifyTimeout             = 8 * time.Second
)

type Dependencies struct {
	Repo        Repository
	Technicians TechnicianLookup
	Locker      lock.Locker
	Notifier    notifications.Notifier
	Cache       cache.Cache
	Metrics     *metrics.Metrics
	Log         *slog.Logger
	Now         func() time.Time
}

type Config struct {
	WorkingHours       []string
	CancellationNotice time.Duration
	CacheTTL           time.Duration
}

type Service struct {
	repo        Repository
	technicians TechnicianLookup
	locker      lock.Locker
	notifier    notifications.Notifier
	cache       cache.Cache
	metrics     *metrics.Metrics
	log         *slog.Logger
	now         func() time.Time
	cfg         Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNoop()
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if len(cfg.WorkingHours) == 0 {
		cfg.WorkingHours = defaultWorkingHours
	}
	if cfg.CancellationNotice <= 0 {
		cfg.CancellationNotice = defaultCancellationNotice
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	return &Service{
		repo:        deps.Repo,
		technicians: deps.Technicians,
		locker:      deps.Locker,
		notifier:    deps.Notifier,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		log:         deps.Log,
		now:         deps.Now,
		cfg:         cfg,
	}
}

func (s *Service) Now() time.Time {
	return s.now().UTC()
}

func (s *Service) Get(ctx context.Context, actor auth.Identity, id string) (models.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if !canAccess(actor, appt) {
		return models.Appointment{}, ErrForbidden
	}
	return appt, nil
}

// List returns every appointment for admins and only the caller's own appointments for
// everyone else.
func (s *Service) List(ctx context.Context, actor auth.Identity, filter ListFilter, limit, offset int64) ([]models.Appointment, int64, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.Technician = strings.TrimSpace(filter.Technician)
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	if !actor.IsAdmin() {
		filter.Participant = actor.ID
	}

	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) load(ctx context.Context, id string) (models.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}
	return appt, nil
}

func canAccess(actor auth.Identity, appt models.Appointment) bool {
	return actor.IsAdmin() || appt.HasParticipant(actor.ID)
}

func (s *Service) record(operation string, err error) {
	switch {
	case err == nil:
		s.metrics.Operation(operation, metrics.OutcomeOK)
	case isRejection(err):
		if errors.Is(err, ErrSchedulingConflict) {
			s.metrics.Conflict()
		}
		s.metrics.Operation(operation, metrics.OutcomeRejected)
	default:
		s.metrics.Operation(operation, metrics.OutcomeError)
	}
}

// invalidate starts a new cache generation for every date touched by the given intervals.
func (s *Service) invalidate(ctx context.Context, technicianID string, intervals ...schedule.Interval) {
	seen := make(map[string]struct{})
	for _, iv := range intervals {
		for _, date := range schedule.DatesCovered(iv) {
			if _, ok := seen[date]; ok {
				continue
			}
			seen[date] = struct{}{}
			generation := []byte(uuid.NewString())
			if err := s.cache.Set(ctx, generationKey(technicianID, date), generation, s.generationTTL()); err != nil {
				s.log.Warn("availability cache: invalidate failed",
					slog.String("technician_id", technicianID),
					slog.String("date", date),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// notify hands the committed event to the notifier off the request path.
func (s *Service) notify(eventType, actorID string, appt models.Appointment) {
	if s.notifier == nil {
		return
	}
	evt := notifications.NewEvent(eventType, actorID, appt, s.Now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, evt); err != nil {
			s.log.Warn("appointments notify: failed",
				slog.String("event", evt.Type),
				slog.String("appointment_id", appt.ID),
				slog.String("error", err.Error()),
			)
		}
	}()
}
