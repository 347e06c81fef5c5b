package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/BearBump/SyncBox/internal/broker/messages"
)

// NotificationText превращает событие из брокера в сообщение для чата.
// Пустая строка — событие неизвестного вида, слать нечего.
func NotificationText(ev messages.OrderNotification) string {
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	switch ev.Kind {
	case messages.NotificationOrderCreated:
		var b strings.Builder
		b.WriteString("🆕 *НОВЫЙ ЗАКАЗ СОЗДАН*\n\n")
		fmt.Fprintf(&b, "*%s*\n", ev.OrderNumber)
		fmt.Fprintf(&b, "👤 %s\n", ev.ClientName)
		fmt.Fprintf(&b, "🚛 %d контейнеров\n", ev.ContainerCount)
		fmt.Fprintf(&b, "📦 %s\n", orDash(ev.GoodsType))
		fmt.Fprintf(&b, "🛣 %s\n\n", orDash(ev.Route))
		fmt.Fprintf(&b, "Создан: %s", at.Format("02.01.2006 15:04"))
		return b.String()

	case messages.NotificationStatusChanged:
		var b strings.Builder
		b.WriteString("📊 *ИЗМЕНЕНИЕ СТАТУСА*\n\n")
		fmt.Fprintf(&b, "*%s*\n", ev.OrderNumber)
		fmt.Fprintf(&b, "👤 %s\n\n", ev.ClientName)
		fmt.Fprintf(&b, "%s → *%s*\n\n", ev.OldStatus, ev.NewStatus)
		fmt.Fprintf(&b, "Обновлено: %s", at.Format("02.01.2006 15:04"))
		return b.String()
	}
	return ""
}
