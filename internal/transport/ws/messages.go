package ws

// Входящие кадры от клиента. Исходящие — broadcast.Event как есть.
const (
	TypeSpeak = "speak" // отправить сообщение в комнату
)

type Frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SpeakPayload struct {
	Message    string  `json:"message"`
	Attachment *string `json:"attachment,omitempty"` // ссылка на загруженный файл
}
