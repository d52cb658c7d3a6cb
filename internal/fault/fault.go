package fault

import (
	"errors"
	"fmt"
)

// Kind — класс ожидаемой ошибки доменной операции.
// На HTTP-границе каждый Kind отображается в свой статус-код,
// внутри ядра — это единственная таксономия (без иерархий исключений).
type Kind string

const (
	NotFound                 Kind = "not_found"
	AlreadyPendingDeletion   Kind = "already_pending_deletion"
	NotPendingDeletion       Kind = "not_pending_deletion"
	SelfAction               Kind = "self_action"
	SuperadminProtection     Kind = "superadmin_protection"
	LastSuperadmin           Kind = "last_superadmin"
	LastOwnerConstraint      Kind = "last_owner_constraint"
	NameConfirmationMismatch Kind = "name_confirmation_mismatch"
	DepthExceeded            Kind = "depth_exceeded"
	CycleDetected            Kind = "cycle_detected"
	SlugConflict             Kind = "slug_conflict"
	// Forbidden — у актора нет нужной роли на этот путь операции
	// (полная авторизация — на HTTP-границе, тут только ролевые проверки путей удаления).
	Forbidden Kind = "forbidden"
	// Internal — неожиданная ошибка стора; «повторите позже», а не «запрос неверен».
	Internal Kind = "internal"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error // исходная причина (обычно только для Internal)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is позволяет errors.Is(err, &fault.Error{Kind: fault.NotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap — для неожиданных ошибок стора: сохраняем причину под Internal.
func Wrap(err error, format string, args ...any) *Error {
	return &Error{Kind: Internal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf возвращает Kind ошибки; Internal для любых «чужих» ошибок, "" для nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }
