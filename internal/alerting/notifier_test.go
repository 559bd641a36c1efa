package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func moveNote() Notification {
	return Notification{
		Pair:         "EUR/SEK",
		Date:         "2026-02-20",
		Kind:         KindMove,
		Latest:       decimal.RequireFromString("11.3234"),
		ChangePct:    decimal.RequireFromString("1.25"),
		ThresholdPct: decimal.NewFromInt(1),
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), moveNote()); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if !strings.Contains(received["text"], "EUR/SEK") {
		t.Fatalf("text 应包含货币对: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), moveNote()); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestRenderMessage(t *testing.T) {
	text := RenderMessage(moveNote())
	if !strings.Contains(text, "1D change: 1.25% (threshold 1.00%)") {
		t.Fatalf("unexpected move message:\n%s", text)
	}

	vol := decimal.RequireFromString("0.4567")
	note := Notification{Pair: "EUR/USD", Date: "2026-02-20", Kind: KindHighVolatility, Regime: "high", Vol30Pct: &vol}
	text = RenderMessage(note)
	if !strings.Contains(text, "Volatility regime: high") || !strings.Contains(text, "30D vol: 0.457%") {
		t.Fatalf("unexpected regime message:\n%s", text)
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
