package taskrunner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TaskFunc представляет функцию, выполняемую в фоновой задаче.
// Результат задача фиксирует сама (например, в базе), раннер только
// логирует возвращенную ошибку.
type TaskFunc func(ctx context.Context) error

// Runner запускает фоновые задачи в режиме fire-and-forget и позволяет
// дождаться их завершения при остановке сервиса.
type Runner struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	closed   bool
	maxTasks int
	active   int
}

// Config содержит конфигурацию для Runner
type Config struct {
	MaxTasks int
}

// New создает новый экземпляр Runner
func New(cfg Config) *Runner {
	maxTasks := cfg.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 100
	}
	return &Runner{
		maxTasks: maxTasks,
	}
}

// Submit запускает задачу в отдельной горутине и сразу возвращает управление.
// Задача получает независимый контекст, унаследовавший только логгер из ctx:
// отмена входящего HTTP-запроса не должна прерывать начатую генерацию.
func (r *Runner) Submit(ctx context.Context, name string, taskFunc TaskFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("раннер остановлен, новые задачи не принимаются")
	}
	if r.active >= r.maxTasks {
		return errors.New("превышено максимальное количество активных задач")
	}
	r.active++

	baseTaskCtx, cancel := context.WithCancel(context.Background())
	taskLogger := log.Ctx(ctx)
	taskCtx := taskLogger.WithContext(baseTaskCtx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			r.mu.Lock()
			r.active--
			r.mu.Unlock()
		}()

		r.runTask(taskCtx, name, taskFunc)
	}()

	return nil
}

// runTask выполняет задачу с защитой от паники
func (r *Runner) runTask(ctx context.Context, name string, taskFunc TaskFunc) {
	startTime := time.Now()
	log.Ctx(ctx).Info().Str("task", name).Msg("Фоновая задача запущена")

	defer func() {
		if rec := recover(); rec != nil {
			log.Ctx(ctx).Error().
				Str("task", name).
				Interface("panic", rec).
				Dur("duration", time.Since(startTime)).
				Msg("Паника в фоновой задаче")
		}
	}()

	if err := taskFunc(ctx); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("task", name).
			Dur("duration", time.Since(startTime)).
			Msg("Фоновая задача завершилась с ошибкой")
		return
	}

	log.Ctx(ctx).Info().
		Str("task", name).
		Dur("duration", time.Since(startTime)).
		Msg("Фоновая задача успешно выполнена")
}

// Shutdown перестает принимать новые задачи и ожидает завершения
// запущенных с таймаутом из ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("таймаут при ожидании завершения задач")
	}
}
