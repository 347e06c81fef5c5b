package pgsync

import (
	"context"
	"strconv"
	"time"

	"github.com/BearBump/SyncBox/internal/models"

	"github.com/pkg/errors"
)

// ListOrdersSince — выгрузка для клиента: заказы с last_sync строже
// водяного знака, свежие первыми, вместе с детьми.
func (s *Storage) ListOrdersSince(ctx context.Context, since *time.Time, limit int) ([]*models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := `SELECT` + orderColumns + ` FROM orders`
	args := []any{}
	if since != nil {
		q += ` WHERE last_sync > $1`
		args = append(args, since.UTC())
	}
	q += ` ORDER BY last_sync DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select orders since")
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	if err := s.loadChildren(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveOrders — незавершённые заказы для отчёта, новые первыми.
// Дети не загружаются, счётчик контейнеров берётся из container_count.
func (s *Storage) ListActiveOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
SELECT`+orderColumns+`
FROM orders
WHERE status = ANY($1)
ORDER BY creation_date DESC NULLS LAST
LIMIT $2
`, models.ActiveOrderStatuses, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select active orders")
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// SearchOrders ищет по номеру заказа, при пустом результате — по имени
// клиента. Дети загружаются (в карточке поиска показываются контейнеры).
func (s *Storage) SearchOrders(ctx context.Context, term string, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + term + "%"

	byNumber, err := s.searchOrders(ctx, `order_number ILIKE $1`, pattern, limit)
	if err != nil {
		return nil, err
	}
	found := byNumber
	if len(found) == 0 {
		found, err = s.searchOrders(ctx, `client_name ILIKE $1`, pattern, limit)
		if err != nil {
			return nil, err
		}
	}

	if err := s.loadChildren(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Storage) searchOrders(ctx context.Context, where, pattern string, limit int) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE `+where+` ORDER BY order_number LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search orders")
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// ListDrivers возвращает контейнеры с назначенным водителем вместе с
// заказом. statuses пустой — без фильтра по статусу заказа.
func (s *Storage) ListDrivers(ctx context.Context, statuses []string, limit int) ([]models.DriverInfo, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := `
SELECT
  c.driver_first_name, c.driver_last_name, c.driver_company,
  c.truck_number, c.driver_iran_phone, c.driver_turkmenistan_phone,
  c.container_number, c.client_receiving_date,
  o.order_number, o.status
FROM containers c
JOIN orders o ON o.id = c.order_id
WHERE c.driver_first_name <> ''`
	args := []any{}
	if len(statuses) > 0 {
		q += ` AND o.status = ANY($1)`
		args = append(args, statuses)
	}
	q += ` ORDER BY o.order_number, c.container_number LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select drivers")
	}
	defer rows.Close()

	var out []models.DriverInfo
	for rows.Next() {
		var d models.DriverInfo
		if err := rows.Scan(
			&d.FirstName, &d.LastName, &d.Company,
			&d.TruckNumber, &d.IranPhone, &d.TurkmenistanPhone,
			&d.ContainerNumber, &d.ClientReceivingDate,
			&d.OrderNumber, &d.OrderStatus,
		); err != nil {
			return nil, errors.Wrap(err, "scan driver")
		}
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) CountOrders(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n)
	return n, errors.Wrap(err, "count orders")
}

func (s *Storage) CountContainers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM containers`).Scan(&n)
	return n, errors.Wrap(err, "count containers")
}

func (s *Storage) CountOrdersByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Query(ctx, `SELECT status, count(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(err, "count orders by status")
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, errors.Wrap(err, "scan status count")
		}
		out[st] = n
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) CountContainersByOrderStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Query(ctx, `
SELECT o.status, count(c.id)
FROM containers c
JOIN orders o ON o.id = c.order_id
GROUP BY o.status
`)
	if err != nil {
		return nil, errors.Wrap(err, "count containers by order status")
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, errors.Wrap(err, "scan container count")
		}
		out[st] = n
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) loadChildren(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	crows, err := s.db.Query(ctx, `
SELECT
  id, order_id, local_id, container_number, container_type, weight, volume,
  loading_date, departure_date, arrival_iran_date, truck_loading_date,
  arrival_turkmenistan_date, client_receiving_date,
  driver_first_name, driver_last_name, driver_company, truck_number,
  driver_iran_phone, driver_turkmenistan_phone, last_sync
FROM containers
WHERE order_id = ANY($1)
ORDER BY id
`, ids)
	if err != nil {
		return errors.Wrap(err, "select containers")
	}
	defer crows.Close()
	for crows.Next() {
		var c models.Container
		if err := crows.Scan(
			&c.ID, &c.OrderID, &c.LocalID, &c.ContainerNumber, &c.ContainerType, &c.Weight, &c.Volume,
			&c.LoadingDate, &c.DepartureDate, &c.ArrivalIranDate, &c.TruckLoadingDate,
			&c.ArrivalTurkmenistanDate, &c.ClientReceivingDate,
			&c.DriverFirstName, &c.DriverLastName, &c.DriverCompany, &c.TruckNumber,
			&c.DriverIranPhone, &c.DriverTurkmenistanPhone, &c.LastSync,
		); err != nil {
			return errors.Wrap(err, "scan container")
		}
		if o, ok := byID[c.OrderID]; ok {
			o.Containers = append(o.Containers, c)
		}
	}
	if crows.Err() != nil {
		return errors.Wrap(crows.Err(), "rows")
	}

	trows, err := s.db.Query(ctx, `
SELECT
  id, order_id, local_id, description, assigned_to, status, priority,
  due_date, created_date, last_sync
FROM tasks
WHERE order_id = ANY($1)
ORDER BY id
`, ids)
	if err != nil {
		return errors.Wrap(err, "select tasks")
	}
	defer trows.Close()
	for trows.Next() {
		var t models.Task
		if err := trows.Scan(
			&t.ID, &t.OrderID, &t.LocalID, &t.Description, &t.AssignedTo, &t.Status, &t.Priority,
			&t.DueDate, &t.CreatedDate, &t.LastSync,
		); err != nil {
			return errors.Wrap(err, "scan task")
		}
		if o, ok := byID[t.OrderID]; ok {
			o.Tasks = append(o.Tasks, t)
		}
	}
	if trows.Err() != nil {
		return errors.Wrap(trows.Err(), "rows")
	}
	return nil
}
