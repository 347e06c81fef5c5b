package syncer

import (
	"context"
	"time"

	"github.com/BearBump/SyncBox/internal/broker/messages"
	"github.com/BearBump/SyncBox/internal/models"
	"github.com/BearBump/SyncBox/internal/storage/pgsync"

	"github.com/pkg/errors"
)

// fakeStorage моделирует батчевую транзакцию с savepoint-семантикой:
// записи агрегата попадают в staged только после Commit savepoint,
// в orders — только после Commit батча.
type fakeStorage struct {
	orders map[string]*models.Order
	logs   []models.SyncLog

	nextID     int64
	commits    int
	failCommit bool
	failInsert map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		orders:     map[string]*models.Order{},
		failInsert: map[string]bool{},
	}
}

func (f *fakeStorage) BeginBatch(_ context.Context) (pgsync.BatchTx, error) {
	return &fakeBatch{st: f, staged: map[string]*models.Order{}}, nil
}

func (f *fakeStorage) AppendSyncLog(_ context.Context, entry models.SyncLog) error {
	f.logs = append(f.logs, entry)
	return nil
}

type fakeBatch struct {
	st     *fakeStorage
	staged map[string]*models.Order
	done   bool
}

func (b *fakeBatch) Aggregate(_ context.Context) (pgsync.AggregateTx, error) {
	return &fakeAgg{b: b, pending: map[string]*models.Order{}}, nil
}

func (b *fakeBatch) Commit(_ context.Context) error {
	if b.st.failCommit {
		return errors.New("commit failed")
	}
	for k, v := range b.staged {
		b.st.orders[k] = v
	}
	b.st.commits++
	b.done = true
	return nil
}

func (b *fakeBatch) Rollback(_ context.Context) error {
	if !b.done {
		b.staged = map[string]*models.Order{}
	}
	return nil
}

type fakeAgg struct {
	b       *fakeBatch
	pending map[string]*models.Order
}

func (a *fakeAgg) FindByOrderNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	if o, ok := a.b.staged[orderNumber]; ok {
		cp := *o
		return &cp, nil
	}
	if o, ok := a.b.st.orders[orderNumber]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (a *fakeAgg) InsertOrder(_ context.Context, o *models.Order) (int64, error) {
	if a.b.st.failInsert[o.OrderNumber] {
		return 0, errors.New("insert failed")
	}
	a.b.st.nextID++
	cp := *o
	cp.ID = a.b.st.nextID
	a.pending[o.OrderNumber] = &cp
	return cp.ID, nil
}

func (a *fakeAgg) UpdateOrderFields(_ context.Context, o *models.Order) error {
	cp := *o
	a.pending[o.OrderNumber] = &cp
	return nil
}

func (a *fakeAgg) ReplaceChildren(_ context.Context, orderID int64, containers []models.Container, tasks []models.Task) error {
	for _, o := range a.pending {
		if o.ID == orderID {
			o.Containers = containers
			o.Tasks = tasks
		}
	}
	return nil
}

func (a *fakeAgg) Commit(_ context.Context) error {
	for k, v := range a.pending {
		a.b.staged[k] = v
	}
	return nil
}

func (a *fakeAgg) Rollback(_ context.Context) error {
	a.pending = map[string]*models.Order{}
	return nil
}

type fakeNotifier struct {
	events []messages.OrderNotification
}

func (n *fakeNotifier) Enqueue(ev messages.OrderNotification) {
	n.events = append(n.events, ev)
}

func (s *ServiceSuite) seedOrder(number string, version int, status string) {
	s.store.nextID++
	s.store.orders[number] = &models.Order{
		ID:          s.store.nextID,
		OrderNumber: number,
		ClientName:  "Seed Client",
		Status:      status,
		Version:     version,
	}
}

func (s *ServiceSuite) TestCreateNewOrder() {
	incoming := &models.Order{
		OrderNumber:    "ORD-1001",
		ClientName:     "Aram Logistics",
		ContainerCount: 2,
		Version:        7,
		Containers: []models.Container{
			{ContainerNumber: "CONT-1"},
			{ContainerNumber: "CONT-2"},
		},
		Tasks: []models.Task{{Description: "prepare docs"}},
	}

	res, err := s.svc.SyncBatch(context.Background(), "device-1", []*models.Order{incoming})
	s.Require().NoError(err)
	s.Require().Equal(1, res.Uploaded)
	s.Require().Equal(0, res.Downloaded)
	s.Require().Empty(res.Issues)
	s.Require().False(res.ServerTime.IsZero())

	stored := s.store.orders["ORD-1001"]
	s.Require().NotNil(stored)
	s.Require().Equal(1, stored.Version)
	s.Require().Equal(models.OrderStatusNew, stored.Status)
	s.Require().Equal("device-1", stored.DeviceID)
	s.Require().NotNil(stored.CreationDate)
	s.Require().Len(stored.Containers, 2)
	s.Require().Len(stored.Tasks, 1)

	s.Require().Len(s.notifier.events, 1)
	s.Require().Equal(messages.NotificationOrderCreated, s.notifier.events[0].Kind)
	s.Require().Equal("ORD-1001", s.notifier.events[0].OrderNumber)

	s.Require().Len(s.store.logs, 1)
	s.Require().Equal(models.SyncLogStatusSuccess, s.store.logs[0].Status)
	s.Require().Equal(1, s.store.logs[0].RecordsSynced)
}

func (s *ServiceSuite) TestUpdateBumpsVersion() {
	s.seedOrder("ORD-2001", 3, models.OrderStatusNew)

	incoming := &models.Order{
		OrderNumber: "ORD-2001",
		ClientName:  "Aram Logistics",
		Status:      models.OrderStatusInTransitCHNIR,
		Version:     3,
	}

	res, err := s.svc.SyncBatch(context.Background(), "device-1", []*models.Order{incoming})
	s.Require().NoError(err)
	s.Require().Equal(1, res.Uploaded)
	s.Require().Empty(res.Issues)

	stored := s.store.orders["ORD-2001"]
	s.Require().Equal(4, stored.Version)
	s.Require().Equal(models.OrderStatusInTransitCHNIR, stored.Status)

	s.Require().Len(s.notifier.events, 1)
	ev := s.notifier.events[0]
	s.Require().Equal(messages.NotificationStatusChanged, ev.Kind)
	s.Require().Equal(models.OrderStatusNew, ev.OldStatus)
	s.Require().Equal(models.OrderStatusInTransitCHNIR, ev.NewStatus)
}

func (s *ServiceSuite) TestUpdateSameStatusNoNotification() {
	s.seedOrder("ORD-2002", 1, models.OrderStatusNew)

	incoming := &models.Order{
		OrderNumber: "ORD-2002",
		ClientName:  "Aram Logistics",
		Status:      models.OrderStatusNew,
		Version:     2,
	}

	res, err := s.svc.SyncBatch(context.Background(), "device-1", []*models.Order{incoming})
	s.Require().NoError(err)
	s.Require().Equal(1, res.Uploaded)
	s.Require().Equal(3, s.store.orders["ORD-2002"].Version)
	s.Require().Empty(s.notifier.events)
}

func (s *ServiceSuite) TestConflictServerNewer() {
	s.seedOrder("ORD-3001", 5, models.OrderStatusInProgressIR)

	incoming := &models.Order{
		OrderNumber: "ORD-3001",
		ClientName:  "Stale Client",
		Status:      models.OrderStatusNew,
		Version:     2,
	}

	res, err := s.svc.SyncBatch(context.Background(), "device-2", []*models.Order{incoming})
	s.Require().NoError(err)
	s.Require().Equal(0, res.Uploaded)
	s.Require().Equal(1, res.Downloaded)
	s.Require().Len(res.Issues, 1)

	issue := res.Issues[0]
	s.Require().Equal(models.IssueTypeServerNewer, issue.Type)
	s.Require().Equal("ORD-3001", issue.OrderNumber)
	s.Require().Equal(5, issue.ServerVersion)
	s.Require().Equal(2, issue.ClientVersion)

	// Серверная запись не тронута.
	stored := s.store.orders["ORD-3001"]
	s.Require().Equal(5, stored.Version)
	s.Require().Equal(models.OrderStatusInProgressIR, stored.Status)
	s.Require().Equal("Seed Client", stored.ClientName)

	s.Require().Empty(s.notifier.events)
	s.Require().Len(s.store.logs, 1)
	s.Require().Equal(models.SyncLogStatusPartial, s.store.logs[0].Status)
}

func (s *ServiceSuite) TestMalformedOrderIsolated() {
	orders := []*models.Order{
		{OrderNumber: "ORD-4001", ClientName: "Client A", Version: 1},
		{OrderNumber: "ORD-4002", ClientName: ""}, // нет имени клиента
		{OrderNumber: "ORD-4003", ClientName: "Client C", Version: 1},
	}

	res, err := s.svc.SyncBatch(context.Background(), "device-1", orders)
	s.Require().NoError(err)
	s.Require().Equal(2, res.Uploaded)
	s.Require().Len(res.Issues, 1)
	s.Require().Equal(models.IssueTypeError, res.Issues[0].Type)
	s.Require().Equal("ORD-4002", res.Issues[0].OrderNumber)
	s.Require().NotEmpty(res.Issues[0].Message)

	s.Require().NotNil(s.store.orders["ORD-4001"])
	s.Require().Nil(s.store.orders["ORD-4002"])
	s.Require().NotNil(s.store.orders["ORD-4003"])
}

func (s *ServiceSuite) TestInsertFailureIsolated() {
	s.store.failInsert["ORD-5002"] = true

	orders := []*models.Order{
		{OrderNumber: "ORD-5001", ClientName: "Client A"},
		{OrderNumber: "ORD-5002", ClientName: "Client B"},
	}

	res, err := s.svc.SyncBatch(context.Background(), "device-1", orders)
	s.Require().NoError(err)
	s.Require().Equal(1, res.Uploaded)
	s.Require().Len(res.Issues, 1)
	s.Require().Equal("ORD-5002", res.Issues[0].OrderNumber)
	s.Require().NotNil(s.store.orders["ORD-5001"])
	s.Require().Nil(s.store.orders["ORD-5002"])
}

func (s *ServiceSuite) TestCommitFailure() {
	s.store.failCommit = true

	orders := []*models.Order{
		{OrderNumber: "ORD-6001", ClientName: "Client A"},
	}

	res, err := s.svc.SyncBatch(context.Background(), "device-1", orders)
	s.Require().Error(err)
	s.Require().Nil(res)

	// Ничего не записано и никаких уведомлений.
	s.Require().Empty(s.store.orders)
	s.Require().Empty(s.notifier.events)

	s.Require().Len(s.store.logs, 1)
	s.Require().Equal(models.SyncLogStatusError, s.store.logs[0].Status)
}

func (s *ServiceSuite) TestDeviceIDRequired() {
	_, err := s.svc.SyncBatch(context.Background(), "", []*models.Order{
		{OrderNumber: "ORD-1", ClientName: "Client"},
	})
	s.Require().Error(err)
	s.Require().Empty(s.store.logs)
}

func (s *ServiceSuite) TestBatchTooLarge() {
	orders := make([]*models.Order, MaxBatchOrders+1)
	for i := range orders {
		orders[i] = &models.Order{OrderNumber: "ORD", ClientName: "C"}
	}
	_, err := s.svc.SyncBatch(context.Background(), "device-1", orders)
	s.Require().Error(err)
}

func (s *ServiceSuite) TestEmptyBatchLogsSuccess() {
	res, err := s.svc.SyncBatch(context.Background(), "device-1", nil)
	s.Require().NoError(err)
	s.Require().Equal(0, res.Uploaded)
	s.Require().Len(s.store.logs, 1)
	s.Require().Equal(models.SyncLogStatusSuccess, s.store.logs[0].Status)
}

func (s *ServiceSuite) TestCreationDatePreserved() {
	creation := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	incoming := &models.Order{
		OrderNumber:  "ORD-7001",
		ClientName:   "Client",
		CreationDate: &creation,
	}

	_, err := s.svc.SyncBatch(context.Background(), "device-1", []*models.Order{incoming})
	s.Require().NoError(err)
	s.Require().Equal(creation, *s.store.orders["ORD-7001"].CreationDate)
}
