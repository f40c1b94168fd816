// models.go — view-модели страниц UI.
package views

import (
	"html/template"

	"github.com/deepcheck/ui-module/internal/detector"
)

// Pagination — навигация по страницам для таблиц.
type Pagination struct {
	Page       int
	TotalPages int
	Total      int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
	// BaseURL — URL страницы без параметра page (для ссылок навигации).
	BaseURL string
}

// DashboardData — данные страницы dashboard.
type DashboardData struct {
	Stats *detector.UserStats
}

// AnalysisData — данные страницы отправки файла на анализ.
type AnalysisData struct {
	// State — текущее состояние отправки (idle, selected, succeeded, failed).
	State string
	// FileName — имя выбранного файла.
	FileName string
	// Preview — data-URL превью изображения (пусто для видео).
	// template.URL: стандартный фильтр URL отбрасывает схему data:.
	Preview template.URL
	// Result — результат завершённого анализа.
	Result *detector.AnalysisResult
	// MaxSizeMB — лимит размера файла для подсказки в форме.
	MaxSizeMB int
}

// HistoryData — данные страницы истории анализов.
type HistoryData struct {
	Records    []detector.HistoryRecord
	Pagination Pagination
}

// DetailsData — данные страницы деталей одного анализа.
type DetailsData struct {
	Record *detector.HistoryRecord
	// BackURL — возврат к странице истории, с которой пришёл пользователь.
	BackURL string
}

// AdminData — данные страницы админ-панели.
// Активная вкладка выбирается параметром tab (stats, users, history).
type AdminData struct {
	Tab    string
	Stats  *detector.AdminStats
	Recent []detector.HistoryRecord

	Users      []detector.UserRecord
	History    []detector.HistoryRecord
	Pagination Pagination
}

// ConfirmData — данные страницы подтверждения мутации.
type ConfirmData struct {
	// Message — описание подтверждаемой операции.
	Message string
	// ConfirmURL — адрес POST подтверждения.
	ConfirmURL string
	// CancelURL — адрес возврата без выполнения операции.
	CancelURL string
	// Hidden — дополнительные скрытые поля формы подтверждения.
	Hidden map[string]string
}
