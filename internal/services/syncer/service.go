package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/SyncBox/internal/broker/messages"
	"github.com/BearBump/SyncBox/internal/models"
	"github.com/BearBump/SyncBox/internal/storage/pgsync"

	"github.com/pkg/errors"
)

// MaxBatchOrders — верхняя граница размера батча от одного устройства.
const MaxBatchOrders = 1000

type Storage interface {
	BeginBatch(ctx context.Context) (pgsync.BatchTx, error)
	AppendSyncLog(ctx context.Context, entry models.SyncLog) error
}

// Notifier принимает события после коммита батча. Не должен блокировать.
type Notifier interface {
	Enqueue(ev messages.OrderNotification)
}

type Service struct {
	store    Storage
	notifier Notifier
}

func New(store Storage, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// SyncBatch прогоняет батч заказов от устройства через одну транзакцию.
// Каждый агрегат обрабатывается в своём savepoint: ошибка по одному заказу
// не валит остальные. Журнал пишется после коммита, одна запись на батч.
func (s *Service) SyncBatch(ctx context.Context, deviceID string, orders []*models.Order) (*models.BatchResult, error) {
	if deviceID == "" {
		return nil, errors.New("device id is required")
	}
	if len(orders) > MaxBatchOrders {
		return nil, errors.Errorf("batch too large: %d orders (max %d)", len(orders), MaxBatchOrders)
	}

	batch, err := s.store.BeginBatch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = batch.Rollback(ctx) }()

	res := &models.BatchResult{}
	var events []messages.OrderNotification

	for _, incoming := range orders {
		out := s.reconcileOne(ctx, batch, deviceID, incoming)
		switch out.Kind {
		case KindCreated, KindUpdated:
			res.Uploaded++
		case KindConflict:
			res.Downloaded++
			res.Issues = append(res.Issues, out.Issue())
		case KindError:
			res.Issues = append(res.Issues, out.Issue())
			slog.Warn("order rejected",
				"device_id", deviceID,
				"order_number", out.OrderNumber,
				"error", out.Err.Error(),
			)
		}
		events = append(events, notificationsFor(out, deviceID)...)
	}

	if err := batch.Commit(ctx); err != nil {
		entry := models.SyncLog{
			DeviceID: deviceID,
			SyncType: models.SyncTypeUpload,
			Status:   models.SyncLogStatusError,
			Message:  err.Error(),
		}
		if logErr := s.store.AppendSyncLog(ctx, entry); logErr != nil {
			slog.Error("append sync log", "device_id", deviceID, "error", logErr.Error())
		}
		return nil, errors.Wrap(err, "commit batch")
	}

	res.ServerTime = time.Now().UTC()

	entry := models.SyncLog{
		DeviceID:      deviceID,
		SyncType:      models.SyncTypeUpload,
		RecordsSynced: res.Uploaded,
		Status:        res.LogStatus(),
		Message:       fmt.Sprintf("uploaded %d orders, %d issues", res.Uploaded, len(res.Issues)),
	}
	if err := s.store.AppendSyncLog(ctx, entry); err != nil {
		// Данные уже закоммичены, батч из-за журнала не роняем.
		slog.Error("append sync log", "device_id", deviceID, "error", err.Error())
	}

	// Уведомления уходят строго после коммита.
	if s.notifier != nil {
		for _, ev := range events {
			s.notifier.Enqueue(ev)
		}
	}

	slog.Info("sync batch done",
		"device_id", deviceID,
		"uploaded", res.Uploaded,
		"conflicts", res.Downloaded,
		"issues", len(res.Issues),
	)
	return res, nil
}

func (s *Service) reconcileOne(ctx context.Context, batch pgsync.BatchTx, deviceID string, incoming *models.Order) Outcome {
	if err := validateOrder(incoming); err != nil {
		return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
	}

	agg, err := batch.Aggregate(ctx)
	if err != nil {
		return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
	}

	out := s.Reconcile(ctx, agg, deviceID, incoming)
	if out.Kind == KindError {
		_ = agg.Rollback(ctx)
		return out
	}
	if err := agg.Commit(ctx); err != nil {
		return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
	}
	return out
}

// Reconcile применяет один агрегат к серверному состоянию.
//
// Нет на сервере — create с version=1. Есть и версия клиента не ниже
// серверной — update, версия становится client+1 (при равенстве побеждает
// последний писатель). Версия клиента ниже — conflict, сервер не трогаем.
func (s *Service) Reconcile(ctx context.Context, store pgsync.Store, deviceID string, incoming *models.Order) Outcome {
	current, err := store.FindByOrderNumber(ctx, incoming.OrderNumber)
	if err != nil {
		return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
	}
	now := time.Now().UTC()

	if current == nil {
		created := newFromIncoming(incoming, deviceID, now)
		id, err := store.InsertOrder(ctx, created)
		if err != nil {
			return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
		}
		created.ID = id
		if err := store.ReplaceChildren(ctx, id, incoming.Containers, incoming.Tasks); err != nil {
			return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
		}
		created.Containers = incoming.Containers
		created.Tasks = incoming.Tasks
		return Outcome{
			Kind:          KindCreated,
			OrderNumber:   created.OrderNumber,
			ServerVersion: created.Version,
			ClientVersion: incoming.Version,
			NewStatus:     created.Status,
			Order:         created,
		}
	}

	if incoming.Version < current.Version {
		return Outcome{
			Kind:          KindConflict,
			OrderNumber:   incoming.OrderNumber,
			ServerVersion: current.Version,
			ClientVersion: incoming.Version,
		}
	}

	oldStatus := current.Status
	applyOrderFields(current, incoming, deviceID, now)
	if err := store.UpdateOrderFields(ctx, current); err != nil {
		return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
	}
	if err := store.ReplaceChildren(ctx, current.ID, incoming.Containers, incoming.Tasks); err != nil {
		return Outcome{Kind: KindError, OrderNumber: incoming.OrderNumber, Err: err}
	}
	current.Containers = incoming.Containers
	current.Tasks = incoming.Tasks
	return Outcome{
		Kind:          KindUpdated,
		OrderNumber:   current.OrderNumber,
		ServerVersion: current.Version,
		ClientVersion: incoming.Version,
		OldStatus:     oldStatus,
		NewStatus:     current.Status,
		Order:         current,
	}
}

func validateOrder(o *models.Order) error {
	if o.OrderNumber == "" {
		return errors.New("order number is required")
	}
	if o.ClientName == "" {
		return errors.New("client name is required")
	}
	if o.Version < 0 {
		return errors.Errorf("negative version %d", o.Version)
	}
	return nil
}

// newFromIncoming готовит заказ к вставке: version=1 независимо от того,
// что прислал клиент, заполняются дефолты и метка синхронизации.
func newFromIncoming(in *models.Order, deviceID string, now time.Time) *models.Order {
	o := *in
	o.ID = 0
	o.Version = 1
	if o.Status == "" {
		o.Status = models.OrderStatusNew
	}
	if o.StatusColor == "" {
		o.StatusColor = "#FFFFFF"
	}
	if o.CreationDate == nil {
		o.CreationDate = &now
	}
	o.LastSync = now
	o.DeviceID = deviceID
	o.Containers = nil
	o.Tasks = nil
	return &o
}

// applyOrderFields переносит изменяемые поля клиента в серверную запись.
// order_number, local_id и creation_date не трогаем, version = client+1.
func applyOrderFields(dst, src *models.Order, deviceID string, now time.Time) {
	dst.ClientName = src.ClientName
	dst.ContainerCount = src.ContainerCount
	dst.GoodsType = src.GoodsType
	dst.Route = src.Route
	dst.TransitPort = src.TransitPort
	dst.DocumentNumber = src.DocumentNumber
	dst.ChineseTransportCompany = src.ChineseTransportCompany
	dst.IranianTransportCompany = src.IranianTransportCompany

	dst.Status = src.Status
	if dst.Status == "" {
		dst.Status = models.OrderStatusNew
	}
	dst.StatusColor = src.StatusColor
	if dst.StatusColor == "" {
		dst.StatusColor = "#FFFFFF"
	}

	dst.DepartureDate = src.DepartureDate
	dst.ArrivalIranDate = src.ArrivalIranDate
	dst.EtaDate = src.EtaDate
	dst.ArrivalNoticeDate = src.ArrivalNoticeDate
	dst.TkmDate = src.TkmDate
	dst.LoadingDate = src.LoadingDate
	dst.TruckLoadingDate = src.TruckLoadingDate
	dst.ArrivalTurkmenistanDate = src.ArrivalTurkmenistanDate
	dst.ClientReceivingDate = src.ClientReceivingDate

	dst.HasLoadingPhoto = src.HasLoadingPhoto
	dst.HasLocalCharges = src.HasLocalCharges
	dst.HasTex = src.HasTex

	dst.Notes = src.Notes
	dst.AdditionalInfo = src.AdditionalInfo

	dst.Version = src.Version + 1
	dst.LastSync = now
	dst.DeviceID = deviceID
}

func notificationsFor(out Outcome, deviceID string) []messages.OrderNotification {
	if out.Order == nil {
		return nil
	}
	now := time.Now().UTC()
	switch out.Kind {
	case KindCreated:
		return []messages.OrderNotification{{
			Kind:           messages.NotificationOrderCreated,
			OrderNumber:    out.Order.OrderNumber,
			ClientName:     out.Order.ClientName,
			ContainerCount: out.Order.ContainerCount,
			GoodsType:      out.Order.GoodsType,
			Route:          out.Order.Route,
			NewStatus:      out.Order.Status,
			DeviceID:       deviceID,
			OccurredAt:     now,
		}}
	case KindUpdated:
		if out.OldStatus == out.NewStatus {
			return nil
		}
		return []messages.OrderNotification{{
			Kind:           messages.NotificationStatusChanged,
			OrderNumber:    out.Order.OrderNumber,
			ClientName:     out.Order.ClientName,
			ContainerCount: out.Order.ContainerCount,
			OldStatus:      out.OldStatus,
			NewStatus:      out.NewStatus,
			DeviceID:       deviceID,
			OccurredAt:     now,
		}}
	}
	return nil
}
