// Пакет views — серверный рендеринг страниц UI DeepCheck.
// Шаблоны html/template встраиваются в бинарник через //go:embed;
// каждая страница компонуется с базовым layout при старте.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/deepcheck/ui-module/internal/detector"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Имена страниц для Renderer.Render.
const (
	PageLogin     = "login"
	PageSignup    = "signup"
	PageDashboard = "dashboard"
	PageAnalysis  = "analysis"
	PageHistory   = "history"
	PageDetails   = "details"
	PageAdmin     = "admin"
	PageConfirm   = "confirm"
	PageError     = "error"
)

// View — данные, общие для всех страниц.
type View struct {
	// Title — заголовок вкладки браузера.
	Title string
	// Active — имя активного пункта навигации.
	Active string
	// User — текущий пользователь (nil для публичных страниц).
	User *detector.Identity
	// Error — сообщение об ошибке для отображения пользователю.
	Error string
	// Data — данные конкретной страницы.
	Data any
}

// IsAdmin сообщает, показывать ли админские пункты навигации.
func (v *View) IsAdmin() bool {
	return v.User != nil && v.User.IsAdmin()
}

// Renderer — рендерер страниц на основе html/template.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer компилирует все шаблоны страниц с базовым layout.
func NewRenderer() (*Renderer, error) {
	pageNames := []string{
		PageLogin, PageSignup, PageDashboard, PageAnalysis,
		PageHistory, PageDetails, PageAdmin, PageConfirm, PageError,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(funcMap()).ParseFS(
			templatesFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("ошибка компиляции шаблона %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render рендерит страницу в w.
func (r *Renderer) Render(w io.Writer, page string, view *View) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("неизвестная страница: %s", page)
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", view); err != nil {
		return fmt.Errorf("ошибка рендеринга страницы %s: %w", page, err)
	}
	return nil
}

// funcMap — функции форматирования, доступные в шаблонах.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"confidence": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"filesize": func(mb float64) string {
			return fmt.Sprintf("%.2f MB", mb)
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
}
