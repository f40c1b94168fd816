package browse

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// fakeCollection — коллекция целых чисел для тестов пагинации.
type fakeCollection struct {
	items   []int
	fetches atomic.Int32
	err     error
}

func (fc *fakeCollection) fetch(ctx context.Context, page, perPage int) (Page[int], error) {
	fc.fetches.Add(1)
	if fc.err != nil {
		return Page[int]{}, fc.err
	}

	total := len(fc.items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		return Page[int]{Number: page, PerPage: perPage, Total: total, TotalPages: totalPages}, nil
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	return Page[int]{
		Items:      fc.items[start:end],
		Number:     page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

// TestLoad_ClampsLowPage проверяет зажатие номера страницы меньше 1.
func TestLoad_ClampsLowPage(t *testing.T) {
	fc := &fakeCollection{items: seq(25)}

	page, err := Load(context.Background(), fc.fetch, -3, 10)
	if err != nil {
		t.Fatalf("Load вернул ошибку: %v", err)
	}
	if page.Number != 1 {
		t.Errorf("Number = %d, ожидается 1", page.Number)
	}
	if len(page.Items) != 10 || page.Items[0] != 1 {
		t.Errorf("неожиданное содержимое: %v", page.Items)
	}
}

// TestLoad_ClampsHighPage проверяет повторную загрузку последней страницы.
func TestLoad_ClampsHighPage(t *testing.T) {
	fc := &fakeCollection{items: seq(25)} // 3 страницы по 10

	page, err := Load(context.Background(), fc.fetch, 99, 10)
	if err != nil {
		t.Fatalf("Load вернул ошибку: %v", err)
	}
	if page.Number != 3 {
		t.Errorf("Number = %d, ожидается 3", page.Number)
	}
	if len(page.Items) != 5 || page.Items[0] != 21 {
		t.Errorf("неожиданное содержимое: %v", page.Items)
	}
	if fc.fetches.Load() != 2 {
		t.Errorf("загрузок = %d, ожидается 2 (зажатие)", fc.fetches.Load())
	}
}

// TestLoad_EmptyCollection проверяет пустую коллекцию: одна страница без элементов.
func TestLoad_EmptyCollection(t *testing.T) {
	fc := &fakeCollection{}

	page, err := Load(context.Background(), fc.fetch, 1, 10)
	if err != nil {
		t.Fatalf("Load вернул ошибку: %v", err)
	}
	if page.TotalPages != 1 {
		t.Errorf("TotalPages = %d, ожидается 1", page.TotalPages)
	}
	if page.HasPrev() || page.HasNext() {
		t.Error("у пустой коллекции не должно быть соседних страниц")
	}
}

// TestPage_HasNextAtLastPage проверяет границы навигации.
func TestPage_HasNextAtLastPage(t *testing.T) {
	fc := &fakeCollection{items: seq(25)}
	pager := NewPager(fc.fetch, 10)

	page, err := pager.Goto(context.Background(), 3)
	if err != nil {
		t.Fatalf("Goto: %v", err)
	}
	if page.HasNext() {
		t.Error("HasNext()=true на последней странице")
	}
	if !page.HasPrev() {
		t.Error("HasPrev()=false на последней странице")
	}

	// Next на последней странице остаётся на месте
	page, err = pager.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if page.Number != 3 {
		t.Errorf("Number = %d, ожидается 3", page.Number)
	}
}

// TestPager_PrevAtFirstPage проверяет, что Prev на первой странице остаётся на месте.
func TestPager_PrevAtFirstPage(t *testing.T) {
	fc := &fakeCollection{items: seq(25)}
	pager := NewPager(fc.fetch, 10)

	if _, err := pager.Goto(context.Background(), 1); err != nil {
		t.Fatalf("Goto: %v", err)
	}

	page, err := pager.Prev(context.Background())
	if err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if page.Number != 1 {
		t.Errorf("Number = %d, ожидается 1", page.Number)
	}
}

// TestPager_FetchError проверяет, что ошибка загрузки не меняет текущую страницу.
func TestPager_FetchError(t *testing.T) {
	fc := &fakeCollection{items: seq(25)}
	pager := NewPager(fc.fetch, 10)

	if _, err := pager.Goto(context.Background(), 2); err != nil {
		t.Fatalf("Goto: %v", err)
	}

	fc.err = errors.New("сервис недоступен")
	if _, err := pager.Goto(context.Background(), 3); err == nil {
		t.Fatal("ожидалась ошибка загрузки")
	}

	if current := pager.Current(); current.Number != 2 {
		t.Errorf("Number = %d, текущая страница не должна меняться", current.Number)
	}
}

// TestPager_ConfirmMutationRefetchesSamePage проверяет двухшаговую мутацию:
// подтверждение выполняет действие и перезагружает ту же страницу.
func TestPager_ConfirmMutationRefetchesSamePage(t *testing.T) {
	fc := &fakeCollection{items: seq(25)}
	pager := NewPager(fc.fetch, 10)

	if _, err := pager.Goto(context.Background(), 2); err != nil {
		t.Fatalf("Goto: %v", err)
	}

	var applied atomic.Bool
	err := pager.RequestMutation("изменение роли alice", func(ctx context.Context) error {
		applied.Store(true)
		return nil
	})
	if err != nil {
		t.Fatalf("RequestMutation: %v", err)
	}

	if pending := pager.Pending(); pending == nil || pending.Label != "изменение роли alice" {
		t.Fatalf("неожиданная ожидающая мутация: %+v", pending)
	}

	// До подтверждения действие не выполняется
	if applied.Load() {
		t.Fatal("мутация выполнена до подтверждения")
	}

	page, err := pager.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !applied.Load() {
		t.Error("мутация не выполнена после подтверждения")
	}
	if page.Number != 2 {
		t.Errorf("Number = %d, ожидается та же страница 2", page.Number)
	}
	if pager.Pending() != nil {
		t.Error("мутация не снята после подтверждения")
	}
}

// TestPager_FailedMutationNoRefetch проверяет, что ошибка мутации
// возвращается вызывающему без перезагрузки страницы.
func TestPager_FailedMutationNoRefetch(t *testing.T) {
	fc := &fakeCollection{items: seq(25)}
	pager := NewPager(fc.fetch, 10)

	if _, err := pager.Goto(context.Background(), 1); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	fetchesBefore := fc.fetches.Load()

	if err := pager.RequestMutation("удаление записи", func(ctx context.Context) error {
		return errors.New("Not found")
	}); err != nil {
		t.Fatalf("RequestMutation: %v", err)
	}

	_, err := pager.Confirm(context.Background())
	if err == nil || err.Error() != "Not found" {
		t.Fatalf("ошибка = %v, ожидается Not found", err)
	}
	if fc.fetches.Load() != fetchesBefore {
		t.Error("страница перезагружена несмотря на ошибку мутации")
	}
	if pager.Pending() != nil {
		t.Error("мутация не снята после ошибки")
	}
}

// TestPager_CancelMutation проверяет отмену без выполнения действия.
func TestPager_CancelMutation(t *testing.T) {
	fc := &fakeCollection{items: seq(5)}
	pager := NewPager(fc.fetch, 10)

	var applied atomic.Bool
	if err := pager.RequestMutation("удаление", func(ctx context.Context) error {
		applied.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("RequestMutation: %v", err)
	}

	pager.Cancel()
	pager.Cancel() // повторная отмена безопасна

	if applied.Load() {
		t.Error("отменённая мутация выполнена")
	}
	if _, err := pager.Confirm(context.Background()); !errors.Is(err, ErrNoPendingMutation) {
		t.Errorf("ошибка = %v, ожидается ErrNoPendingMutation", err)
	}
}

// TestPager_SecondMutationRejected проверяет отказ второй мутации
// при неподтверждённой первой.
func TestPager_SecondMutationRejected(t *testing.T) {
	fc := &fakeCollection{items: seq(5)}
	pager := NewPager(fc.fetch, 10)

	noop := func(ctx context.Context) error { return nil }
	if err := pager.RequestMutation("первая", noop); err != nil {
		t.Fatalf("RequestMutation: %v", err)
	}
	if err := pager.RequestMutation("вторая", noop); !errors.Is(err, ErrMutationPending) {
		t.Errorf("ошибка = %v, ожидается ErrMutationPending", err)
	}
}

// TestPager_ShrinkAfterDelete проверяет зажатие номера страницы,
// когда удаление сокращает коллекцию.
func TestPager_ShrinkAfterDelete(t *testing.T) {
	fc := &fakeCollection{items: seq(11)} // 2 страницы по 10
	pager := NewPager(fc.fetch, 10)

	if _, err := pager.Goto(context.Background(), 2); err != nil {
		t.Fatalf("Goto: %v", err)
	}

	if err := pager.RequestMutation("удаление записи 11", func(ctx context.Context) error {
		fc.items = fc.items[:10] // осталась одна страница
		return nil
	}); err != nil {
		t.Fatalf("RequestMutation: %v", err)
	}

	page, err := pager.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if page.Number != 1 {
		t.Errorf("Number = %d, ожидается 1 после сокращения", page.Number)
	}
}
