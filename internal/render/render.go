// Package render превращает сущность сообщения во фрагмент для выдачи
// слушателям. Для ядра это непрозрачный шаг форматирования: хаб раздаёт
// фрагмент как есть.
package render

import (
	"html"
	"time"
)

// Fragment — готовый к показу кусок: экранированный HTML плюс сырые поля
// для клиентов, рисующих самостоятельно.
type Fragment struct {
	HTML       string  `json:"html"`
	UserName   string  `json:"user_name"`
	Content    string  `json:"content"`
	Attachment *string `json:"attachment,omitempty"`
	SentAtUnix int64   `json:"sent_at_unix"`
}

type Renderer struct{}

func New() *Renderer { return &Renderer{} }

// Message формирует фрагмент сообщения пользователя.
func (r *Renderer) Message(userName, content string, attachment *string, at time.Time) Fragment {
	h := `<div class="message"><span class="name">` + html.EscapeString(userName) +
		`</span><p>` + html.EscapeString(content) + `</p>`
	if attachment != nil {
		h += `<a class="attachment" href="` + html.EscapeString(*attachment) + `">attachment</a>`
	}
	h += `</div>`

	return Fragment{
		HTML:       h,
		UserName:   userName,
		Content:    content,
		Attachment: attachment,
		SentAtUnix: at.Unix(),
	}
}

// System формирует фрагмент системного объявления (вход/выход).
func (r *Renderer) System(content string, at time.Time) Fragment {
	return Fragment{
		HTML:       `<div class="system"><p>` + html.EscapeString(content) + `</p></div>`,
		Content:    content,
		SentAtUnix: at.Unix(),
	}
}
