// Пакет browse — постраничный просмотр коллекций Detection API.
// Номер страницы зажимается в допустимый диапазон, мутации (удаление,
// смена роли) проходят двухшаговое подтверждение, устаревшие ответы
// отбрасываются по номеру поколения.
package browse

import (
	"context"
	"errors"
	"sync"
)

// Ошибки постраничного просмотра.
var (
	// ErrStale — ответ отброшен: просмотр ушёл вперёд во время загрузки.
	ErrStale = errors.New("ответ устарел")
	// ErrNoPendingMutation — подтверждение без ожидающей мутации.
	ErrNoPendingMutation = errors.New("нет ожидающей операции")
	// ErrMutationPending — новая мутация при неподтверждённой предыдущей.
	ErrMutationPending = errors.New("предыдущая операция ещё не подтверждена")
)

// Page — страница коллекции с метаданными пагинации.
type Page[T any] struct {
	Items      []T
	Number     int
	PerPage    int
	Total      int
	TotalPages int
}

// HasPrev сообщает, есть ли предыдущая страница.
func (p Page[T]) HasPrev() bool {
	return p.Number > 1
}

// HasNext сообщает, есть ли следующая страница.
func (p Page[T]) HasNext() bool {
	return p.Number < p.TotalPages
}

// Fetcher — загрузчик одной страницы коллекции.
type Fetcher[T any] func(ctx context.Context, page, perPage int) (Page[T], error)

// Load загружает страницу с зажатием номера в допустимый диапазон.
// Номер меньше 1 зажимается до 1; если сервер сообщил меньше страниц,
// чем запрошено, выполняется повторная загрузка последней страницы.
func Load[T any](ctx context.Context, fetch Fetcher[T], page, perPage int) (Page[T], error) {
	if page < 1 {
		page = 1
	}

	result, err := fetch(ctx, page, perPage)
	if err != nil {
		return Page[T]{}, err
	}
	if result.TotalPages < 1 {
		result.TotalPages = 1
	}

	if page > result.TotalPages {
		// Коллекция сократилась — зажимаем до последней страницы
		result, err = fetch(ctx, result.TotalPages, perPage)
		if err != nil {
			return Page[T]{}, err
		}
		if result.TotalPages < 1 {
			result.TotalPages = 1
		}
	}

	return result, nil
}

// Mutation — отложенная мутация коллекции, ждущая подтверждения.
type Mutation struct {
	// Label — описание операции для страницы подтверждения.
	Label string
	// apply — действие, выполняемое после подтверждения.
	apply func(ctx context.Context) error
}

// Pager — состояние постраничного просмотра одной коллекции.
// Потокобезопасен; каждый переход увеличивает номер поколения,
// ответы загрузок предыдущих поколений не применяются.
type Pager[T any] struct {
	fetch   Fetcher[T]
	perPage int

	mu         sync.Mutex
	current    Page[T]
	pending    *Mutation
	generation uint64
}

// NewPager создаёт просмотр коллекции с заданным размером страницы.
func NewPager[T any](fetch Fetcher[T], perPage int) *Pager[T] {
	return &Pager[T]{fetch: fetch, perPage: perPage}
}

// Goto загружает страницу с указанным номером.
// Номер зажимается в [1, totalPages]. Если во время загрузки выполнен
// другой переход, результат отбрасывается и возвращается ErrStale.
func (p *Pager[T]) Goto(ctx context.Context, page int) (Page[T], error) {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	result, err := Load(ctx, p.fetch, page, p.perPage)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return p.current, ErrStale
	}
	if err != nil {
		return p.current, err
	}

	p.current = result
	return result, nil
}

// Next переходит на следующую страницу (на последней остаётся на месте).
func (p *Pager[T]) Next(ctx context.Context) (Page[T], error) {
	return p.Goto(ctx, p.Current().Number+1)
}

// Prev переходит на предыдущую страницу (на первой остаётся на месте).
func (p *Pager[T]) Prev(ctx context.Context) (Page[T], error) {
	return p.Goto(ctx, p.Current().Number-1)
}

// Refresh перезагружает текущую страницу.
func (p *Pager[T]) Refresh(ctx context.Context) (Page[T], error) {
	return p.Goto(ctx, p.Current().Number)
}

// Current возвращает последнюю применённую страницу.
func (p *Pager[T]) Current() Page[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// RequestMutation регистрирует мутацию, требующую подтверждения.
// Пока предыдущая мутация не подтверждена и не отменена, новая
// не принимается.
func (p *Pager[T]) RequestMutation(label string, apply func(ctx context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		return ErrMutationPending
	}
	p.pending = &Mutation{Label: label, apply: apply}
	return nil
}

// Pending возвращает ожидающую мутацию или nil.
func (p *Pager[T]) Pending() *Mutation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Cancel отменяет ожидающую мутацию. Идемпотентен.
func (p *Pager[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
}

// Confirm выполняет ожидающую мутацию.
// При успехе текущая страница перезагружается (номер зажимается, если
// коллекция сократилась). При ошибке страница не перезагружается,
// ошибка возвращается вызывающему. Мутация снимается в обоих случаях.
func (p *Pager[T]) Confirm(ctx context.Context) (Page[T], error) {
	p.mu.Lock()
	mutation := p.pending
	p.pending = nil
	p.mu.Unlock()

	if mutation == nil {
		return p.Current(), ErrNoPendingMutation
	}

	if err := mutation.apply(ctx); err != nil {
		return p.Current(), err
	}

	return p.Refresh(ctx)
}
