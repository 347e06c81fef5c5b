package pgsync

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS orders (
  id BIGSERIAL PRIMARY KEY,
  local_id BIGINT NOT NULL DEFAULT 0,
  order_number TEXT NOT NULL,
  client_name TEXT NOT NULL,
  container_count INT NOT NULL DEFAULT 0,
  goods_type TEXT NOT NULL DEFAULT '',
  route TEXT NOT NULL DEFAULT '',
  transit_port TEXT NOT NULL DEFAULT '',
  document_number TEXT NOT NULL DEFAULT '',
  chinese_transport_company TEXT NOT NULL DEFAULT '',
  iranian_transport_company TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'New',
  status_color TEXT NOT NULL DEFAULT '#FFFFFF',
  creation_date TIMESTAMPTZ NULL,
  departure_date TIMESTAMPTZ NULL,
  arrival_iran_date TIMESTAMPTZ NULL,
  eta_date TIMESTAMPTZ NULL,
  arrival_notice_date TIMESTAMPTZ NULL,
  tkm_date TIMESTAMPTZ NULL,
  loading_date TIMESTAMPTZ NULL,
  truck_loading_date TIMESTAMPTZ NULL,
  arrival_turkmenistan_date TIMESTAMPTZ NULL,
  client_receiving_date TIMESTAMPTZ NULL,
  has_loading_photo BOOLEAN NOT NULL DEFAULT FALSE,
  has_local_charges BOOLEAN NOT NULL DEFAULT FALSE,
  has_tex BOOLEAN NOT NULL DEFAULT FALSE,
  notes TEXT NOT NULL DEFAULT '',
  additional_info TEXT NOT NULL DEFAULT '',
  version INT NOT NULL DEFAULT 1,
  last_sync TIMESTAMPTZ NOT NULL DEFAULT now(),
  device_id TEXT NOT NULL DEFAULT '',
  UNIQUE (order_number)
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_last_sync ON orders(last_sync)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_device_id ON orders(device_id)`,
		`
CREATE TABLE IF NOT EXISTS containers (
  id BIGSERIAL PRIMARY KEY,
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  local_id BIGINT NOT NULL DEFAULT 0,
  container_number TEXT NOT NULL DEFAULT '',
  container_type TEXT NOT NULL DEFAULT '20ft Standard',
  weight NUMERIC(10,2) NOT NULL DEFAULT 0,
  volume NUMERIC(10,2) NOT NULL DEFAULT 0,
  loading_date TIMESTAMPTZ NULL,
  departure_date TIMESTAMPTZ NULL,
  arrival_iran_date TIMESTAMPTZ NULL,
  truck_loading_date TIMESTAMPTZ NULL,
  arrival_turkmenistan_date TIMESTAMPTZ NULL,
  client_receiving_date TIMESTAMPTZ NULL,
  driver_first_name TEXT NOT NULL DEFAULT '',
  driver_last_name TEXT NOT NULL DEFAULT '',
  driver_company TEXT NOT NULL DEFAULT '',
  truck_number TEXT NOT NULL DEFAULT '',
  driver_iran_phone TEXT NOT NULL DEFAULT '',
  driver_turkmenistan_phone TEXT NOT NULL DEFAULT '',
  last_sync TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_containers_order_id ON containers(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_containers_container_number ON containers(container_number)`,
		`
CREATE TABLE IF NOT EXISTS tasks (
  id BIGSERIAL PRIMARY KEY,
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  local_id BIGINT NOT NULL DEFAULT 0,
  description TEXT NOT NULL,
  assigned_to TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'ToDo',
  priority TEXT NOT NULL DEFAULT 'Medium',
  due_date TIMESTAMPTZ NULL,
  created_date TIMESTAMPTZ NULL,
  last_sync TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_order_id ON tasks(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`
CREATE TABLE IF NOT EXISTS sync_logs (
  id BIGSERIAL PRIMARY KEY,
  device_id TEXT NOT NULL DEFAULT '',
  sync_type TEXT NOT NULL DEFAULT '',
  records_synced INT NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT '',
  timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_logs_device_id ON sync_logs(device_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_logs_timestamp ON sync_logs(timestamp)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
