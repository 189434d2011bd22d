package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/academy-scheduler/internal/application"
)

// ServiceFactory builds application services wired to a shared deterministic
// clock and id sequence.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a factory starting at ReferenceTime.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      DiscardLogger(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

// WithIDGenerator overrides the id sequence.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// WithLogger overrides the service logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// NewSlotService builds a slot service over slots.
func (f *ServiceFactory) NewSlotService(slots application.SlotRepository) *application.SlotService {
	return application.NewSlotServiceWithLogger(slots, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewTimeSlotService builds a catalog service over timeSlots.
func (f *ServiceFactory) NewTimeSlotService(timeSlots application.TimeSlotRepository) *application.TimeSlotService {
	return application.NewTimeSlotService(timeSlots, f.Logger)
}

// NewTaskService builds a task service. horizonDays <= 0 uses the default.
func (f *ServiceFactory) NewTaskService(tasks application.TaskRepository, horizonDays int) *application.TaskService {
	return application.NewTaskServiceWithLogger(tasks, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), horizonDays, f.Logger)
}

// NewEventService builds an event service. upcomingDays <= 0 uses the default.
func (f *ServiceFactory) NewEventService(events application.EventRepository, upcomingDays int) *application.EventService {
	return application.NewEventServiceWithLogger(events, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), upcomingDays, f.Logger)
}
