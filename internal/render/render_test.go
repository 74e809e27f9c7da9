package render

import (
	"strings"
	"testing"
	"time"
)

func TestMessage_EscapesHTML(t *testing.T) {
	r := New()

	f := r.Message(`<b>злой</b>`, `<script>alert("x")</script>`, nil, time.Unix(100, 0))

	if strings.Contains(f.HTML, "<script>") || strings.Contains(f.HTML, "<b>злой") {
		t.Fatalf("raw markup leaked into fragment: %s", f.HTML)
	}
	if !strings.Contains(f.HTML, "&lt;script&gt;") {
		t.Fatalf("content must be escaped: %s", f.HTML)
	}
	// сырые поля остаются как есть — экранирование только в HTML
	if f.Content != `<script>alert("x")</script>` {
		t.Fatalf("raw content mutated: %q", f.Content)
	}
	if f.SentAtUnix != 100 {
		t.Fatalf("sent_at = %d", f.SentAtUnix)
	}
}

func TestMessage_Attachment(t *testing.T) {
	r := New()

	ref := `files/a".png`
	f := r.Message("ゲスト1", "смотри", &ref, time.Now())

	if !strings.Contains(f.HTML, `class="attachment"`) {
		t.Fatalf("attachment link missing: %s", f.HTML)
	}
	if strings.Contains(f.HTML, `a".png`) {
		t.Fatalf("attachment href must be escaped: %s", f.HTML)
	}
	if f.Attachment == nil || *f.Attachment != ref {
		t.Fatalf("raw attachment = %v", f.Attachment)
	}

	if noAtt := r.Message("ゲスト1", "без вложения", nil, time.Now()); strings.Contains(noAtt.HTML, "attachment") {
		t.Fatalf("no attachment expected: %s", noAtt.HTML)
	}
}

func TestSystem(t *testing.T) {
	r := New()

	f := r.System("ゲスト1が入室しました。", time.Unix(50, 0))

	if !strings.Contains(f.HTML, `class="system"`) {
		t.Fatalf("system class missing: %s", f.HTML)
	}
	if !strings.Contains(f.HTML, "ゲスト1が入室しました。") {
		t.Fatalf("announcement text missing: %s", f.HTML)
	}
	if f.UserName != "" {
		t.Fatalf("system fragment carries no author, got %q", f.UserName)
	}
}
