// Package session определяет маршрутизацию сеанса: по сохранённой записи
// о входе вычисляется стартовое состояние приложения — экран входа,
// кабинет студента или кабинет администратора.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/sessionstore"
)

// State — состояние маршрутизатора сеанса.
type State string

const (
	// StateLoading — запись о входе ещё не прочитана.
	StateLoading State = "loading"
	// StateUnauthenticated — записи о входе нет, показывается вход.
	StateUnauthenticated State = "unauthenticated"
	// StateStudentHome — вошёл студент.
	StateStudentHome State = "student_home"
	// StateAdminHome — вошёл администратор.
	StateAdminHome State = "admin_home"
)

// Router вычисляет и хранит текущее состояние сеанса.
// Все методы безопасны для конкурентного вызова.
type Router struct {
	sessions *sessionstore.Store
	log      *slog.Logger

	mu      sync.RWMutex
	current State
	user    *models.User
}

// New создает маршрутизатор в состоянии StateLoading.
func New(sessions *sessionstore.Store, log *slog.Logger) *Router {
	return &Router{
		sessions: sessions,
		log:      log,
		current:  StateLoading,
	}
}

// Resolve читает сохранённую запись о входе и переводит маршрутизатор
// из StateLoading в конечное состояние. Ошибка чтения хранилища трактуется
// как отсутствие записи: пользователь попадёт на экран входа, а не в тупик.
func (r *Router) Resolve(ctx context.Context) (State, error) {
	const op = "session.Resolve"

	user, err := r.sessions.Load(ctx)
	if err != nil {
		r.log.Warn("session load failed, treating as signed out",
			slog.String("op", op), slog.String("error", err.Error()))
		r.set(StateUnauthenticated, nil)
		return StateUnauthenticated, nil
	}
	if user == nil {
		r.set(StateUnauthenticated, nil)
		return StateUnauthenticated, nil
	}

	state := stateFor(user)
	r.set(state, user)
	return state, nil
}

// SignIn переводит маршрутизатор в кабинет по роли вошедшего пользователя.
func (r *Router) SignIn(user *models.User) State {
	state := stateFor(user)
	r.set(state, user)
	return state
}

// SignOut стирает запись о входе и лишь затем переводит маршрутизатор
// в StateUnauthenticated: наблюдаемый выход означает, что запись уже стёрта.
func (r *Router) SignOut(ctx context.Context) error {
	const op = "session.SignOut"

	if err := r.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.set(StateUnauthenticated, nil)
	return nil
}

// Current возвращает текущее состояние и пользователя (nil вне кабинетов).
func (r *Router) Current() (State, *models.User) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.user
}

func (r *Router) set(state State, user *models.User) {
	r.mu.Lock()
	r.current = state
	r.user = user
	r.mu.Unlock()
}

func stateFor(user *models.User) State {
	if user.IsAdmin() {
		return StateAdminHome
	}
	return StateStudentHome
}
