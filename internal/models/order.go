package models

import "time"

// Статусы заказа — значения, которые присылает десктопный клиент.
// Порядок соответствует маршруту Китай -> Иран -> Туркменистан.
const (
	OrderStatusNew            = "New"
	OrderStatusInProgressCHN  = "In Progress CHN"
	OrderStatusInTransitCHNIR = "In Transit CHN-IR"
	OrderStatusInProgressIR   = "In Progress IR"
	OrderStatusInTransitIRTKM = "In Transit IR-TKM"
	OrderStatusCompleted      = "Completed"
	OrderStatusCancelled      = "Cancelled"
)

// ActiveOrderStatuses — всё, что ещё в работе (не Completed/Cancelled).
var ActiveOrderStatuses = []string{
	OrderStatusNew,
	OrderStatusInProgressCHN,
	OrderStatusInTransitCHNIR,
	OrderStatusInProgressIR,
	OrderStatusInTransitIRTKM,
}

const (
	TaskStatusToDo       = "ToDo"
	TaskStatusInProgress = "InProgress"
	TaskStatusCompleted  = "Completed"
)

// Order — агрегат синхронизации: заказ вместе с контейнерами и задачами.
// OrderNumber — натуральный ключ, Version — счётчик оптимистичной блокировки.
type Order struct {
	ID      int64
	LocalID int64

	OrderNumber    string
	ClientName     string
	ContainerCount int

	GoodsType               string
	Route                   string
	TransitPort             string
	DocumentNumber          string
	ChineseTransportCompany string
	IranianTransportCompany string

	Status      string
	StatusColor string

	CreationDate            *time.Time
	DepartureDate           *time.Time
	ArrivalIranDate         *time.Time
	EtaDate                 *time.Time
	ArrivalNoticeDate       *time.Time
	TkmDate                 *time.Time
	LoadingDate             *time.Time
	TruckLoadingDate        *time.Time
	ArrivalTurkmenistanDate *time.Time
	ClientReceivingDate     *time.Time

	HasLoadingPhoto bool
	HasLocalCharges bool
	HasTex          bool

	Notes          string
	AdditionalInfo string

	Version  int
	LastSync time.Time
	DeviceID string

	Containers []Container
	Tasks      []Task
}

type Container struct {
	ID      int64
	OrderID int64
	LocalID int64

	ContainerNumber string
	ContainerType   string
	Weight          float64
	Volume          float64

	LoadingDate             *time.Time
	DepartureDate           *time.Time
	ArrivalIranDate         *time.Time
	TruckLoadingDate        *time.Time
	ArrivalTurkmenistanDate *time.Time
	ClientReceivingDate     *time.Time

	DriverFirstName         string
	DriverLastName          string
	DriverCompany           string
	TruckNumber             string
	DriverIranPhone         string
	DriverTurkmenistanPhone string

	LastSync time.Time
}

type Task struct {
	ID      int64
	OrderID int64
	LocalID int64

	Description string
	AssignedTo  string
	Status      string
	Priority    string
	DueDate     *time.Time
	CreatedDate *time.Time

	LastSync time.Time
}

// DriverInfo — проекция "водитель в рейсе" для отчётов и /drivers.
type DriverInfo struct {
	FirstName           string
	LastName            string
	Company             string
	TruckNumber         string
	IranPhone           string
	TurkmenistanPhone   string
	ContainerNumber     string
	OrderNumber         string
	OrderStatus         string
	ClientReceivingDate *time.Time
}
