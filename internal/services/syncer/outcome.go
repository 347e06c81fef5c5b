package syncer

import "github.com/BearBump/SyncBox/internal/models"

// Kind — типизированный исход примирения одного агрегата.
// Конфликты и ошибки — это значения, а не паника и не exception.
type Kind string

const (
	KindCreated  Kind = "created"
	KindUpdated  Kind = "updated"
	KindConflict Kind = "conflict"
	KindError    Kind = "error"
)

type Outcome struct {
	Kind        Kind
	OrderNumber string

	// Версии заполняются для update и conflict.
	ServerVersion int
	ClientVersion int

	// Статусы до и после — для триггера уведомления.
	OldStatus string
	NewStatus string

	// Order — состояние, как оно записано в хранилище
	// (после create/update). Для conflict/error — nil.
	Order *models.Order

	Err error
}

func (o Outcome) Accepted() bool {
	return o.Kind == KindCreated || o.Kind == KindUpdated
}

func (o Outcome) Issue() models.SyncIssue {
	switch o.Kind {
	case KindConflict:
		return models.SyncIssue{
			OrderNumber:   o.OrderNumber,
			Type:          models.IssueTypeServerNewer,
			ServerVersion: o.ServerVersion,
			ClientVersion: o.ClientVersion,
		}
	case KindError:
		msg := ""
		if o.Err != nil {
			msg = o.Err.Error()
		}
		return models.SyncIssue{
			OrderNumber: o.OrderNumber,
			Type:        models.IssueTypeError,
			Message:     msg,
		}
	default:
		return models.SyncIssue{OrderNumber: o.OrderNumber}
	}
}
