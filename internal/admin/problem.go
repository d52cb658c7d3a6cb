package admin

import (
	"net/http"

	"atrium/internal/fault"
	"atrium/internal/models"
)

// statusOf — отображение Kind → HTTP статус. Единственное место,
// где таксономия ядра встречается с транспортом.
func statusOf(k fault.Kind) int {
	switch k {
	case fault.NotFound:
		return http.StatusNotFound
	case fault.AlreadyPendingDeletion, fault.NotPendingDeletion, fault.SlugConflict:
		return http.StatusConflict
	case fault.NameConfirmationMismatch:
		return http.StatusBadRequest
	case fault.Forbidden:
		return http.StatusForbidden
	case fault.SelfAction, fault.SuperadminProtection, fault.LastSuperadmin,
		fault.LastOwnerConstraint, fault.DepthExceeded, fault.CycleDetected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeFault(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	status := statusOf(kind)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		// внутренности стора наружу не отдаём
		detail = "internal error"
	}
	models.WriteProblem(w, status, http.StatusText(status), detail, map[string]any{
		"kind": string(kind),
	})
}
