package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BearBump/SyncBox/internal/models"
)

type Reader interface {
	CountOrders(ctx context.Context) (int, error)
	CountContainers(ctx context.Context) (int, error)
	CountOrdersByStatus(ctx context.Context) (map[string]int, error)
	CountContainersByOrderStatus(ctx context.Context) (map[string]int, error)
	ListActiveOrders(ctx context.Context, limit int) ([]*models.Order, error)
	SearchOrders(ctx context.Context, term string, limit int) ([]*models.Order, error)
	ListDrivers(ctx context.Context, statuses []string, limit int) ([]models.DriverInfo, error)
	LastSyncLog(ctx context.Context) (*models.SyncLog, error)
	CountSyncLogsSince(ctx context.Context, since time.Time) (int, error)
}

// Service собирает Markdown-отчёты для бота.
type Service struct {
	reader Reader
}

func New(reader Reader) *Service {
	return &Service{reader: reader}
}

var statusEmoji = map[string]string{
	models.OrderStatusNew:            "🆕",
	models.OrderStatusInProgressCHN:  "🇨🇳",
	models.OrderStatusInTransitCHNIR: "🚢",
	models.OrderStatusInProgressIR:   "🇮🇷",
	models.OrderStatusInTransitIRTKM: "🚛",
	models.OrderStatusCompleted:      "✅",
	models.OrderStatusCancelled:      "❌",
}

func emojiFor(status string) string {
	if e, ok := statusEmoji[status]; ok {
		return e
	}
	return "📋"
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func Welcome() string {
	return `🚛 *Margiana Logistics Reporting Bot*

Добро пожаловать! Я помогу отслеживать ваши грузы.

*Доступные команды:*
/report - Сводный отчет по заказам
/orders - Список активных заказов
/drivers - Список водителей
/status - Статус по направлениям
/search [номер] - Поиск заказа
/sync - Статус синхронизации
/help - Помощь

Данные обновляются автоматически при синхронизации с программой.`
}

func Help() string {
	return `*Как использовать бота:*

1. *Отчеты* — используйте /report для получения текущей сводки
2. *Поиск* — /search ORD-001 найдет заказ по номеру
3. *Водители* — /drivers покажет всех водителей в пути
4. *Уведомления* — приходят автоматически при изменениях

*Статусы заказов:*
• New — Новый заказ
• In Progress CHN — В работе в Китае
• In Transit CHN-IR — В пути Китай-Иран
• In Progress IR — В работе в Иране
• In Transit IR-TKM — В пути Иран-Туркменистан
• Completed — Завершен`
}

// Summary — /report: общая статистика, разбивка по статусам,
// синхронизации за сутки.
func (s *Service) Summary(ctx context.Context) (string, error) {
	total, err := s.reader.CountOrders(ctx)
	if err != nil {
		return "", err
	}
	containers, err := s.reader.CountContainers(ctx)
	if err != nil {
		return "", err
	}
	byStatus, err := s.reader.CountOrdersByStatus(ctx)
	if err != nil {
		return "", err
	}
	recentSyncs, err := s.reader.CountSyncLogsSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return "", err
	}

	active := 0
	for _, st := range models.ActiveOrderStatuses {
		active += byStatus[st]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *СВОДНЫЙ ОТЧЕТ — %s*\n\n", time.Now().Format("02.01.2006 15:04"))
	b.WriteString("*ОБЩАЯ СТАТИСТИКА:*\n")
	fmt.Fprintf(&b, "• Всего заказов: %d\n", total)
	fmt.Fprintf(&b, "• Активных: %d\n", active)
	fmt.Fprintf(&b, "• Контейнеров: %d\n\n", containers)

	b.WriteString("*ПО СТАТУСАМ:*\n")
	ordered := append(append([]string{}, models.ActiveOrderStatuses...), models.OrderStatusCompleted)
	for _, st := range ordered {
		if n := byStatus[st]; n > 0 {
			fmt.Fprintf(&b, "• %s %s: %d\n", emojiFor(st), st, n)
		}
	}

	b.WriteString("\n*СИНХРОНИЗАЦИЯ:*\n")
	fmt.Fprintf(&b, "• Обновлений за 24ч: %d\n\n", recentSyncs)
	b.WriteString("Используйте /orders для деталей по заказам.")
	return b.String(), nil
}

// ActiveOrders — /orders: до 10 незавершённых заказов.
func (s *Service) ActiveOrders(ctx context.Context) (string, error) {
	orders, err := s.reader.ListActiveOrders(ctx, 10)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "📭 Нет активных заказов", nil
	}

	var b strings.Builder
	b.WriteString("📋 *АКТИВНЫЕ ЗАКАЗЫ:*\n\n")
	for _, o := range orders {
		notes := o.Notes
		if len(notes) > 50 {
			notes = notes[:50]
		}
		fmt.Fprintf(&b, "%s *%s*\n", emojiFor(o.Status), o.OrderNumber)
		fmt.Fprintf(&b, "👤 %s\n", o.ClientName)
		fmt.Fprintf(&b, "🚛 %d конт. | %s\n", o.ContainerCount, orDash(o.GoodsType))
		fmt.Fprintf(&b, "📍 %s\n", o.Status)
		fmt.Fprintf(&b, "📝 %s\n\n", orDash(notes))
	}
	fmt.Fprintf(&b, "_Всего показано: %d_", len(orders))
	return b.String(), nil
}

// Drivers — /drivers: водители по заказам в пути.
func (s *Service) Drivers(ctx context.Context) (string, error) {
	inTransit := []string{
		models.OrderStatusInTransitCHNIR,
		models.OrderStatusInTransitIRTKM,
		models.OrderStatusInProgressIR,
	}
	drivers, err := s.reader.ListDrivers(ctx, inTransit, 20)
	if err != nil {
		return "", err
	}
	if len(drivers) == 0 {
		return "📭 Нет водителей в рейсе", nil
	}

	var b strings.Builder
	b.WriteString("🚛 *ВОДИТЕЛИ В РЕЙСЕ:*\n\n")
	for _, d := range drivers {
		pod := "—"
		if d.ClientReceivingDate != nil {
			pod = d.ClientReceivingDate.Format("02.01")
		}
		fmt.Fprintf(&b, "👤 *%s %s*\n", d.FirstName, d.LastName)
		fmt.Fprintf(&b, "🏢 %s\n", orDash(d.Company))
		fmt.Fprintf(&b, "🚛 %s | %s\n", orDash(d.TruckNumber), orDash(d.ContainerNumber))
		fmt.Fprintf(&b, "📞 IR: %s\n", orDash(d.IranPhone))
		fmt.Fprintf(&b, "📞 TKM: %s\n", orDash(d.TurkmenistanPhone))
		fmt.Fprintf(&b, "📦 Заказ: %s\n", orDash(d.OrderNumber))
		fmt.Fprintf(&b, "🎯 POD: %s\n\n", pod)
	}
	return b.String(), nil
}

// SyncStatus — /sync: последняя синхронизация и счётчик за неделю.
func (s *Service) SyncStatus(ctx context.Context) (string, error) {
	last, err := s.reader.LastSyncLog(ctx)
	if err != nil {
		return "", err
	}
	weekly, err := s.reader.CountSyncLogsSince(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("🔄 *СТАТУС СИНХРОНИЗАЦИИ*\n\n*Последняя синхронизация:*\n")
	if last == nil {
		b.WriteString("• Нет данных о синхронизации\n")
	} else {
		mark := "⚠️"
		if last.Status == models.SyncLogStatusSuccess {
			mark = "✅"
		}
		fmt.Fprintf(&b, "• Время: %s (%s)\n", last.Timestamp.Format("02.01.2006 15:04"), timeAgo(time.Since(last.Timestamp)))
		fmt.Fprintf(&b, "• Тип: %s\n", last.SyncType)
		fmt.Fprintf(&b, "• Записей: %d\n", last.RecordsSynced)
		fmt.Fprintf(&b, "• Статус: %s %s\n", mark, last.Status)
	}
	fmt.Fprintf(&b, "\n*За последние 7 дней:* %d синхронизаций\n\n", weekly)
	b.WriteString("_Синхронизация происходит автоматически при работе программы._")
	return b.String(), nil
}

func timeAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "только что"
	case d < time.Hour:
		return fmt.Sprintf("%d мин. назад", int(d.Minutes()))
	default:
		return fmt.Sprintf("%d ч. назад", int(d.Hours()))
	}
}

// Search — /search: по номеру заказа, затем по имени клиента.
func (s *Service) Search(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "🔍 Укажите номер заказа для поиска:\n/search ORD-001", nil
	}

	orders, err := s.reader.SearchOrders(ctx, term, 5)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return fmt.Sprintf("🔍 Заказы по запросу '%s' не найдены", term), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *РЕЗУЛЬТАТЫ ПОИСКА:* '%s'\n\n", term)
	for _, o := range orders {
		fmt.Fprintf(&b, "📋 *%s*\n", o.OrderNumber)
		fmt.Fprintf(&b, "👤 %s\n", o.ClientName)
		fmt.Fprintf(&b, "📍 %s\n", o.Status)
		fmt.Fprintf(&b, "🚛 %d конт. | %s\n", o.ContainerCount, orDash(o.GoodsType))
		fmt.Fprintf(&b, "📝 %s\n", orDash(o.Notes))
		for i, c := range o.Containers {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %s %s\n", orDash(c.ContainerNumber), c.DriverFirstName, c.DriverLastName)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// StatusByLeg — /status: заказы и контейнеры по участкам маршрута.
func (s *Service) StatusByLeg(ctx context.Context) (string, error) {
	orders, err := s.reader.CountOrdersByStatus(ctx)
	if err != nil {
		return "", err
	}
	containers, err := s.reader.CountContainersByOrderStatus(ctx)
	if err != nil {
		return "", err
	}

	line := func(label, status string) string {
		return fmt.Sprintf("%s %s: %d заказов, %d конт.\n",
			emojiFor(status), label, orders[status], containers[status])
	}

	var b strings.Builder
	b.WriteString("🗺 *СТАТУС ПО НАПРАВЛЕНИЯМ*\n\n")
	b.WriteString("*Китай (отправление):*\n")
	b.WriteString(line("Новые", models.OrderStatusNew))
	b.WriteString(line("В работе", models.OrderStatusInProgressCHN))
	b.WriteString("\n*В пути:*\n")
	b.WriteString(line("Морем Китай-Иран", models.OrderStatusInTransitCHNIR))
	b.WriteString("\n*Иран (транзит):*\n")
	b.WriteString(line("В работе", models.OrderStatusInProgressIR))
	b.WriteString(line("Авто Иран-ТКМ", models.OrderStatusInTransitIRTKM))
	b.WriteString("\n*Завершено:*\n")
	fmt.Fprintf(&b, "✅ Completed: %d заказов\n", orders[models.OrderStatusCompleted])
	fmt.Fprintf(&b, "❌ Cancelled: %d заказов", orders[models.OrderStatusCancelled])
	return b.String(), nil
}
