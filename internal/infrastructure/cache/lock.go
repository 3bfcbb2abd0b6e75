package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/adrianfdez469/cuadrecaja-sub000/internal/application/importer"
	"github.com/adrianfdez469/cuadrecaja-sub000/internal/domain"
	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

var _ importer.ImportLocker = (*ImportLocker)(nil)

// ImportLocker candado distribuido por clave (una importación por negocio a la vez).
// Mientras el candado está tomado se renueva cada ttl/2, así una importación larga no lo pierde.
type ImportLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewImportLocker construye el candado. ttl es la vida del candado si el proceso muere sin liberarlo.
func NewImportLocker(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *ImportLocker {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &ImportLocker{locker: redislock.New(rdb), ttl: ttl, log: log}
}

// Acquire no espera: si otra importación tiene el candado devuelve domain.ErrConflict.
// Si una renovación falla, el contexto devuelto se cancela con importer.ErrLockLost.
func (l *ImportLocker) Acquire(ctx context.Context, key string) (context.Context, func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, nil, domain.NewError(domain.ErrConflict, "ya hay una importación en curso para este negocio", key)
	}
	if err != nil {
		return nil, nil, domain.Wrap(domain.ErrStorage, "obtener candado de importación", err)
	}

	lockCtx, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(l.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := lock.Refresh(context.WithoutCancel(ctx), l.ttl, nil); err != nil {
					l.log.Error().Err(err).Str("key", key).Msg("candado de importación perdido, se detienen los bloques pendientes")
					cancel(importer.ErrLockLost)
					return
				}
			}
		}
	}()

	var once sync.Once
	release := func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			wg.Wait()
			cancel(nil)
			err = lock.Release(ctx)
			if errors.Is(err, redislock.ErrLockNotHeld) {
				err = nil
			}
		})
		return err
	}
	return lockCtx, release, nil
}
