package pgsync

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/SyncBox/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "syncbox_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/syncbox_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGSync_BatchFlow(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)

	// create внутри батча с savepoint
	batch, err := st.BeginBatch(ctx)
	require.NoError(t, err)

	agg, err := batch.Aggregate(ctx)
	require.NoError(t, err)

	found, err := agg.FindByOrderNumber(ctx, "ORD-1001")
	require.NoError(t, err)
	require.Nil(t, found)

	id, err := agg.InsertOrder(ctx, &models.Order{
		LocalID:      7,
		OrderNumber:  "ORD-1001",
		ClientName:   "Aram Logistics",
		Status:       models.OrderStatusNew,
		StatusColor:  "#FFFFFF",
		CreationDate: &now,
		Version:      1,
		LastSync:     now,
		DeviceID:     "device-1",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	require.NoError(t, agg.ReplaceChildren(ctx, id,
		[]models.Container{
			{LocalID: 1, ContainerNumber: "CONT-1", ContainerType: "20ft Standard", Weight: 21.5},
			{LocalID: 2, ContainerNumber: "CONT-2", ContainerType: "40ft HC", DriverFirstName: "Ali"},
		},
		[]models.Task{
			{LocalID: 1, Description: "prepare docs", Status: models.TaskStatusToDo, Priority: "Medium"},
		},
	))
	require.NoError(t, agg.Commit(ctx))

	// второй агрегат в том же батче падает и откатывается savepoint-ом
	agg2, err := batch.Aggregate(ctx)
	require.NoError(t, err)
	_, err = agg2.InsertOrder(ctx, &models.Order{
		OrderNumber: "ORD-1001", // дубль натурального ключа
		ClientName:  "Duplicate",
		Version:     1,
		LastSync:    now,
	})
	require.Error(t, err)
	require.NoError(t, agg2.Rollback(ctx))

	// батч целиком коммитится, несмотря на откат второго агрегата
	require.NoError(t, batch.Commit(ctx))

	// читаем через новый батч
	batch2, err := st.BeginBatch(ctx)
	require.NoError(t, err)
	agg3, err := batch2.Aggregate(ctx)
	require.NoError(t, err)

	got, err := agg3.FindByOrderNumber(ctx, "ORD-1001")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 1, got.Version)
	require.Equal(t, "Aram Logistics", got.ClientName)
	require.Equal(t, "device-1", got.DeviceID)

	// update + полная замена детей
	got.ClientName = "Aram Logistics LLC"
	got.Status = models.OrderStatusInProgressCHN
	got.Version = 2
	got.LastSync = time.Now().UTC()
	require.NoError(t, agg3.UpdateOrderFields(ctx, got))
	require.NoError(t, agg3.ReplaceChildren(ctx, got.ID,
		[]models.Container{{LocalID: 3, ContainerNumber: "CONT-9"}},
		nil,
	))
	require.NoError(t, agg3.Commit(ctx))
	require.NoError(t, batch2.Commit(ctx))

	// выгрузка с детьми
	orders, err := st.ListOrdersSince(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "Aram Logistics LLC", orders[0].ClientName)
	require.Equal(t, 2, orders[0].Version)
	require.Len(t, orders[0].Containers, 1)
	require.Equal(t, "CONT-9", orders[0].Containers[0].ContainerNumber)
	require.Empty(t, orders[0].Tasks)

	// водяной знак в будущем — пусто
	future := time.Now().UTC().Add(time.Hour)
	orders, err = st.ListOrdersSince(ctx, &future, 10)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPGSync_QueriesAndLogs(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(number, client, status string, driver string) {
		batch, err := st.BeginBatch(ctx)
		require.NoError(t, err)
		agg, err := batch.Aggregate(ctx)
		require.NoError(t, err)
		id, err := agg.InsertOrder(ctx, &models.Order{
			OrderNumber:  number,
			ClientName:   client,
			Status:       status,
			CreationDate: &now,
			Version:      1,
			LastSync:     now,
		})
		require.NoError(t, err)
		var containers []models.Container
		if driver != "" {
			containers = []models.Container{{
				ContainerNumber: "CONT-" + number,
				DriverFirstName: driver,
				TruckNumber:     "12-A-345",
			}}
		}
		require.NoError(t, agg.ReplaceChildren(ctx, id, containers, nil))
		require.NoError(t, agg.Commit(ctx))
		require.NoError(t, batch.Commit(ctx))
	}

	seed("ORD-1", "Client A", models.OrderStatusNew, "")
	seed("ORD-2", "Client B", models.OrderStatusInTransitIRTKM, "Ali")
	seed("ORD-3", "Client C", models.OrderStatusCompleted, "Murad")

	active, err := st.ListActiveOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 2)

	found, err := st.SearchOrders(ctx, "ORD-2", 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Client B", found[0].ClientName)

	// фолбэк на имя клиента
	found, err = st.SearchOrders(ctx, "Client C", 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "ORD-3", found[0].OrderNumber)

	drivers, err := st.ListDrivers(ctx, nil, 50)
	require.NoError(t, err)
	require.Len(t, drivers, 2)

	drivers, err = st.ListDrivers(ctx, []string{models.OrderStatusInTransitIRTKM}, 50)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	require.Equal(t, "Ali", drivers[0].FirstName)
	require.Equal(t, "ORD-2", drivers[0].OrderNumber)

	total, err := st.CountOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, total)

	byStatus, err := st.CountOrdersByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, byStatus[models.OrderStatusNew])

	contByStatus, err := st.CountContainersByOrderStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, contByStatus[models.OrderStatusInTransitIRTKM])

	// журнал
	last, err := st.LastSyncLog(ctx)
	require.NoError(t, err)
	require.Nil(t, last)

	require.NoError(t, st.AppendSyncLog(ctx, models.SyncLog{
		DeviceID:      "device-1",
		SyncType:      models.SyncTypeUpload,
		RecordsSynced: 3,
		Status:        models.SyncLogStatusSuccess,
		Message:       "uploaded 3 orders, 0 issues",
	}))

	last, err = st.LastSyncLog(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "device-1", last.DeviceID)
	require.Equal(t, 3, last.RecordsSynced)

	n, err := st.CountSyncLogsSince(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
