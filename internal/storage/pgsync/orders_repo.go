package pgsync

import (
	"context"

	"github.com/BearBump/SyncBox/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const orderColumns = `
  id, local_id, order_number, client_name, container_count,
  goods_type, route, transit_port, document_number,
  chinese_transport_company, iranian_transport_company,
  status, status_color,
  creation_date, departure_date, arrival_iran_date, eta_date,
  arrival_notice_date, tkm_date, loading_date, truck_loading_date,
  arrival_turkmenistan_date, client_receiving_date,
  has_loading_photo, has_local_charges, has_tex,
  notes, additional_info,
  version, last_sync, device_id`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.LocalID, &o.OrderNumber, &o.ClientName, &o.ContainerCount,
		&o.GoodsType, &o.Route, &o.TransitPort, &o.DocumentNumber,
		&o.ChineseTransportCompany, &o.IranianTransportCompany,
		&o.Status, &o.StatusColor,
		&o.CreationDate, &o.DepartureDate, &o.ArrivalIranDate, &o.EtaDate,
		&o.ArrivalNoticeDate, &o.TkmDate, &o.LoadingDate, &o.TruckLoadingDate,
		&o.ArrivalTurkmenistanDate, &o.ClientReceivingDate,
		&o.HasLoadingPhoto, &o.HasLocalCharges, &o.HasTex,
		&o.Notes, &o.AdditionalInfo,
		&o.Version, &o.LastSync, &o.DeviceID,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *aggregateTx) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	row := a.tx.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	o, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order by number")
	}
	return o, nil
}

func (a *aggregateTx) InsertOrder(ctx context.Context, o *models.Order) (int64, error) {
	var id int64
	err := a.tx.QueryRow(ctx, `
INSERT INTO orders (
  local_id, order_number, client_name, container_count,
  goods_type, route, transit_port, document_number,
  chinese_transport_company, iranian_transport_company,
  status, status_color,
  creation_date, departure_date, arrival_iran_date, eta_date,
  arrival_notice_date, tkm_date, loading_date, truck_loading_date,
  arrival_turkmenistan_date, client_receiving_date,
  has_loading_photo, has_local_charges, has_tex,
  notes, additional_info,
  version, last_sync, device_id
)
VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
  $11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
  $21,$22,$23,$24,$25,$26,$27,$28,$29,$30
)
RETURNING id
`,
		o.LocalID, o.OrderNumber, o.ClientName, o.ContainerCount,
		o.GoodsType, o.Route, o.TransitPort, o.DocumentNumber,
		o.ChineseTransportCompany, o.IranianTransportCompany,
		o.Status, o.StatusColor,
		o.CreationDate, o.DepartureDate, o.ArrivalIranDate, o.EtaDate,
		o.ArrivalNoticeDate, o.TkmDate, o.LoadingDate, o.TruckLoadingDate,
		o.ArrivalTurkmenistanDate, o.ClientReceivingDate,
		o.HasLoadingPhoto, o.HasLocalCharges, o.HasTex,
		o.Notes, o.AdditionalInfo,
		o.Version, o.LastSync, o.DeviceID,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert order")
	}
	return id, nil
}

// UpdateOrderFields перезаписывает изменяемые поля заказа по id.
// order_number, local_id и creation_date после создания не меняются.
func (a *aggregateTx) UpdateOrderFields(ctx context.Context, o *models.Order) error {
	_, err := a.tx.Exec(ctx, `
UPDATE orders
SET
  client_name = $2,
  container_count = $3,
  goods_type = $4,
  route = $5,
  transit_port = $6,
  document_number = $7,
  chinese_transport_company = $8,
  iranian_transport_company = $9,
  status = $10,
  status_color = $11,
  departure_date = $12,
  arrival_iran_date = $13,
  eta_date = $14,
  arrival_notice_date = $15,
  tkm_date = $16,
  loading_date = $17,
  truck_loading_date = $18,
  arrival_turkmenistan_date = $19,
  client_receiving_date = $20,
  has_loading_photo = $21,
  has_local_charges = $22,
  has_tex = $23,
  notes = $24,
  additional_info = $25,
  version = $26,
  last_sync = $27,
  device_id = $28
WHERE id = $1
`,
		o.ID,
		o.ClientName, o.ContainerCount, o.GoodsType, o.Route, o.TransitPort,
		o.DocumentNumber, o.ChineseTransportCompany, o.IranianTransportCompany,
		o.Status, o.StatusColor,
		o.DepartureDate, o.ArrivalIranDate, o.EtaDate, o.ArrivalNoticeDate,
		o.TkmDate, o.LoadingDate, o.TruckLoadingDate,
		o.ArrivalTurkmenistanDate, o.ClientReceivingDate,
		o.HasLoadingPhoto, o.HasLocalCharges, o.HasTex,
		o.Notes, o.AdditionalInfo,
		o.Version, o.LastSync, o.DeviceID,
	)
	return errors.Wrap(err, "update order fields")
}

// ReplaceChildren выкидывает старые контейнеры и задачи заказа и вставляет
// присланный набор целиком. Частичных патчей нет — так клиентские удаления
// не оставляют осиротевших строк.
func (a *aggregateTx) ReplaceChildren(ctx context.Context, orderID int64, containers []models.Container, tasks []models.Task) error {
	if _, err := a.tx.Exec(ctx, `DELETE FROM containers WHERE order_id = $1`, orderID); err != nil {
		return errors.Wrap(err, "delete containers")
	}
	for _, c := range containers {
		_, err := a.tx.Exec(ctx, `
INSERT INTO containers (
  order_id, local_id, container_number, container_type, weight, volume,
  loading_date, departure_date, arrival_iran_date, truck_loading_date,
  arrival_turkmenistan_date, client_receiving_date,
  driver_first_name, driver_last_name, driver_company, truck_number,
  driver_iran_phone, driver_turkmenistan_phone, last_sync
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18, now())
`,
			orderID, c.LocalID, c.ContainerNumber, c.ContainerType, c.Weight, c.Volume,
			c.LoadingDate, c.DepartureDate, c.ArrivalIranDate, c.TruckLoadingDate,
			c.ArrivalTurkmenistanDate, c.ClientReceivingDate,
			c.DriverFirstName, c.DriverLastName, c.DriverCompany, c.TruckNumber,
			c.DriverIranPhone, c.DriverTurkmenistanPhone,
		)
		if err != nil {
			return errors.Wrap(err, "insert container")
		}
	}

	if _, err := a.tx.Exec(ctx, `DELETE FROM tasks WHERE order_id = $1`, orderID); err != nil {
		return errors.Wrap(err, "delete tasks")
	}
	for _, t := range tasks {
		_, err := a.tx.Exec(ctx, `
INSERT INTO tasks (
  order_id, local_id, description, assigned_to, status, priority,
  due_date, created_date, last_sync
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now())
`,
			orderID, t.LocalID, t.Description, t.AssignedTo, t.Status, t.Priority,
			t.DueDate, t.CreatedDate,
		)
		if err != nil {
			return errors.Wrap(err, "insert task")
		}
	}
	return nil
}
