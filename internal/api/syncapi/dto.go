package syncapi

import (
	"time"

	"github.com/BearBump/SyncBox/internal/models"
)

// DTO в PascalCase — формат, на который завязан десктопный клиент.

type containerDTO struct {
	ID                      int64      `json:"Id"`
	ContainerNumber         string     `json:"ContainerNumber"`
	ContainerType           string     `json:"ContainerType"`
	Weight                  float64    `json:"Weight"`
	Volume                  float64    `json:"Volume"`
	LoadingDate             *time.Time `json:"LoadingDate"`
	DepartureDate           *time.Time `json:"DepartureDate"`
	ArrivalIranDate         *time.Time `json:"ArrivalIranDate"`
	TruckLoadingDate        *time.Time `json:"TruckLoadingDate"`
	ArrivalTurkmenistanDate *time.Time `json:"ArrivalTurkmenistanDate"`
	ClientReceivingDate     *time.Time `json:"ClientReceivingDate"`
	DriverFirstName         string     `json:"DriverFirstName"`
	DriverLastName          string     `json:"DriverLastName"`
	DriverCompany           string     `json:"DriverCompany"`
	TruckNumber             string     `json:"TruckNumber"`
	DriverIranPhone         string     `json:"DriverIranPhone"`
	DriverTurkmenistanPhone string     `json:"DriverTurkmenistanPhone"`
}

type taskDTO struct {
	TaskID      int64      `json:"TaskId"`
	OrderID     int64      `json:"OrderId"`
	Description string     `json:"Description"`
	AssignedTo  string     `json:"AssignedTo"`
	Status      string     `json:"Status"`
	Priority    string     `json:"Priority"`
	DueDate     *time.Time `json:"DueDate"`
	CreatedDate *time.Time `json:"CreatedDate"`
}

type orderDTO struct {
	ID                      int64      `json:"Id"`
	OrderNumber             string     `json:"OrderNumber"`
	ClientName              string     `json:"ClientName"`
	ContainerCount          int        `json:"ContainerCount"`
	GoodsType               string     `json:"GoodsType"`
	Route                   string     `json:"Route"`
	TransitPort             string     `json:"TransitPort"`
	DocumentNumber          string     `json:"DocumentNumber"`
	ChineseTransportCompany string     `json:"ChineseTransportCompany"`
	IranianTransportCompany string     `json:"IranianTransportCompany"`
	Status                  string     `json:"Status"`
	StatusColor             string     `json:"StatusColor"`
	CreationDate            *time.Time `json:"CreationDate"`
	DepartureDate           *time.Time `json:"DepartureDate"`
	ArrivalIranDate         *time.Time `json:"ArrivalIranDate"`
	EtaDate                 *time.Time `json:"EtaDate"`
	ArrivalNoticeDate       *time.Time `json:"ArrivalNoticeDate"`
	TkmDate                 *time.Time `json:"TkmDate"`
	LoadingDate             *time.Time `json:"LoadingDate"`
	TruckLoadingDate        *time.Time `json:"TruckLoadingDate"`
	ArrivalTurkmenistanDate *time.Time `json:"ArrivalTurkmenistanDate"`
	ClientReceivingDate     *time.Time `json:"ClientReceivingDate"`
	HasLoadingPhoto         bool       `json:"HasLoadingPhoto"`
	HasLocalCharges         bool       `json:"HasLocalCharges"`
	HasTex                  bool       `json:"HasTex"`
	Notes                   string     `json:"Notes"`
	AdditionalInfo          string     `json:"AdditionalInfo"`
	Version                 int        `json:"Version"`
	LastSync                *time.Time `json:"LastSync,omitempty"`

	Containers []containerDTO `json:"Containers"`
	Tasks      []taskDTO      `json:"Tasks"`
}

type syncRequest struct {
	DeviceID string     `json:"DeviceId"`
	LastSync *time.Time `json:"LastSync"`
	Orders   []orderDTO `json:"Orders"`
}

type syncResponse struct {
	Success          bool             `json:"Success"`
	Message          string           `json:"Message"`
	OrdersUploaded   int              `json:"OrdersUploaded"`
	OrdersDownloaded int              `json:"OrdersDownloaded"`
	Conflicts        []map[string]any `json:"Conflicts"`
	ServerTime       time.Time        `json:"ServerTime"`
}

func (d orderDTO) toModel() *models.Order {
	o := &models.Order{
		LocalID:                 d.ID,
		OrderNumber:             d.OrderNumber,
		ClientName:              d.ClientName,
		ContainerCount:          d.ContainerCount,
		GoodsType:               d.GoodsType,
		Route:                   d.Route,
		TransitPort:             d.TransitPort,
		DocumentNumber:          d.DocumentNumber,
		ChineseTransportCompany: d.ChineseTransportCompany,
		IranianTransportCompany: d.IranianTransportCompany,
		Status:                  d.Status,
		StatusColor:             d.StatusColor,
		CreationDate:            d.CreationDate,
		DepartureDate:           d.DepartureDate,
		ArrivalIranDate:         d.ArrivalIranDate,
		EtaDate:                 d.EtaDate,
		ArrivalNoticeDate:       d.ArrivalNoticeDate,
		TkmDate:                 d.TkmDate,
		LoadingDate:             d.LoadingDate,
		TruckLoadingDate:        d.TruckLoadingDate,
		ArrivalTurkmenistanDate: d.ArrivalTurkmenistanDate,
		ClientReceivingDate:     d.ClientReceivingDate,
		HasLoadingPhoto:         d.HasLoadingPhoto,
		HasLocalCharges:         d.HasLocalCharges,
		HasTex:                  d.HasTex,
		Notes:                   d.Notes,
		AdditionalInfo:          d.AdditionalInfo,
		Version:                 d.Version,
	}
	for _, c := range d.Containers {
		o.Containers = append(o.Containers, models.Container{
			LocalID:                 c.ID,
			ContainerNumber:         c.ContainerNumber,
			ContainerType:           c.ContainerType,
			Weight:                  c.Weight,
			Volume:                  c.Volume,
			LoadingDate:             c.LoadingDate,
			DepartureDate:           c.DepartureDate,
			ArrivalIranDate:         c.ArrivalIranDate,
			TruckLoadingDate:        c.TruckLoadingDate,
			ArrivalTurkmenistanDate: c.ArrivalTurkmenistanDate,
			ClientReceivingDate:     c.ClientReceivingDate,
			DriverFirstName:         c.DriverFirstName,
			DriverLastName:          c.DriverLastName,
			DriverCompany:           c.DriverCompany,
			TruckNumber:             c.TruckNumber,
			DriverIranPhone:         c.DriverIranPhone,
			DriverTurkmenistanPhone: c.DriverTurkmenistanPhone,
		})
	}
	for _, t := range d.Tasks {
		o.Tasks = append(o.Tasks, models.Task{
			LocalID:     t.TaskID,
			Description: t.Description,
			AssignedTo:  t.AssignedTo,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     t.DueDate,
			CreatedDate: t.CreatedDate,
		})
	}
	return o
}

func fromModel(o *models.Order) orderDTO {
	lastSync := o.LastSync
	d := orderDTO{
		ID:                      o.LocalID,
		OrderNumber:             o.OrderNumber,
		ClientName:              o.ClientName,
		ContainerCount:          o.ContainerCount,
		GoodsType:               o.GoodsType,
		Route:                   o.Route,
		TransitPort:             o.TransitPort,
		DocumentNumber:          o.DocumentNumber,
		ChineseTransportCompany: o.ChineseTransportCompany,
		IranianTransportCompany: o.IranianTransportCompany,
		Status:                  o.Status,
		StatusColor:             o.StatusColor,
		CreationDate:            o.CreationDate,
		DepartureDate:           o.DepartureDate,
		ArrivalIranDate:         o.ArrivalIranDate,
		EtaDate:                 o.EtaDate,
		ArrivalNoticeDate:       o.ArrivalNoticeDate,
		TkmDate:                 o.TkmDate,
		LoadingDate:             o.LoadingDate,
		TruckLoadingDate:        o.TruckLoadingDate,
		ArrivalTurkmenistanDate: o.ArrivalTurkmenistanDate,
		ClientReceivingDate:     o.ClientReceivingDate,
		HasLoadingPhoto:         o.HasLoadingPhoto,
		HasLocalCharges:         o.HasLocalCharges,
		HasTex:                  o.HasTex,
		Notes:                   o.Notes,
		AdditionalInfo:          o.AdditionalInfo,
		Version:                 o.Version,
		LastSync:                &lastSync,
		Containers:              []containerDTO{},
		Tasks:                   []taskDTO{},
	}
	for _, c := range o.Containers {
		d.Containers = append(d.Containers, containerDTO{
			ID:                      c.LocalID,
			ContainerNumber:         c.ContainerNumber,
			ContainerType:           c.ContainerType,
			Weight:                  c.Weight,
			Volume:                  c.Volume,
			LoadingDate:             c.LoadingDate,
			DepartureDate:           c.DepartureDate,
			ArrivalIranDate:         c.ArrivalIranDate,
			TruckLoadingDate:        c.TruckLoadingDate,
			ArrivalTurkmenistanDate: c.ArrivalTurkmenistanDate,
			ClientReceivingDate:     c.ClientReceivingDate,
			DriverFirstName:         c.DriverFirstName,
			DriverLastName:          c.DriverLastName,
			DriverCompany:           c.DriverCompany,
			TruckNumber:             c.TruckNumber,
			DriverIranPhone:         c.DriverIranPhone,
			DriverTurkmenistanPhone: c.DriverTurkmenistanPhone,
		})
	}
	for _, t := range o.Tasks {
		d.Tasks = append(d.Tasks, taskDTO{
			TaskID:      t.LocalID,
			OrderID:     o.LocalID,
			Description: t.Description,
			AssignedTo:  t.AssignedTo,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     t.DueDate,
			CreatedDate: t.CreatedDate,
		})
	}
	return d
}

// Conflicts в ответе — словари со snake_case ключами, как их читает клиент.
func conflictEntries(issues []models.SyncIssue) []map[string]any {
	out := make([]map[string]any, 0, len(issues))
	for _, is := range issues {
		switch is.Type {
		case models.IssueTypeServerNewer:
			out = append(out, map[string]any{
				"order_number":   is.OrderNumber,
				"type":           is.Type,
				"server_version": is.ServerVersion,
				"client_version": is.ClientVersion,
			})
		default:
			out = append(out, map[string]any{
				"order_number": is.OrderNumber,
				"type":         is.Type,
				"message":      is.Message,
			})
		}
	}
	return out
}

type driverDTO struct {
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Company           string     `json:"company"`
	TruckNumber       string     `json:"truck_number"`
	IranPhone         string     `json:"iran_phone"`
	TurkmenistanPhone string     `json:"turkmenistan_phone"`
	ContainerNumber   string     `json:"container_number"`
	OrderNumber       string     `json:"order_number"`
	OrderStatus       string     `json:"order_status"`
	ClientReceiving   *time.Time `json:"client_receiving_date,omitempty"`
}

func fromDriverInfo(d models.DriverInfo) driverDTO {
	return driverDTO{
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Company:           d.Company,
		TruckNumber:       d.TruckNumber,
		IranPhone:         d.IranPhone,
		TurkmenistanPhone: d.TurkmenistanPhone,
		ContainerNumber:   d.ContainerNumber,
		OrderNumber:       d.OrderNumber,
		OrderStatus:       d.OrderStatus,
		ClientReceiving:   d.ClientReceivingDate,
	}
}
