package symcoro

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Option configures a coroutine at creation.
type Option func(*config)

type config struct {
	name   string
	logger log.FieldLogger
}

// WithName attaches a human-readable name, used in String and in
// log fields.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger lifecycle events are written to. The
// default, also used when logger is nil, is logrus' standard logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// identity is shared by every handle, the suspender and the future
// of one coroutine.
type identity struct {
	id   uuid.UUID
	name string
	log  log.FieldLogger
}

func newIdentity(opts []Option) *identity {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.StandardLogger()
	}

	id := uuid.New()
	fields := log.Fields{"coroutine": id.String()}
	if cfg.name != "" {
		fields["name"] = cfg.name
	}

	return &identity{
		id:   id,
		name: cfg.name,
		log:  cfg.logger.WithFields(fields),
	}
}

func (i *identity) String() string {
	if i.name == "" {
		return i.id.String()
	}
	return i.name + "(" + i.id.String() + ")"
}
