package models

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// ParseStatus принимает только известные статусы
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// IsTerminal - resolved и closed считаются завершёнными, но не блокируют переходы
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// TransitionKind описывает характер смены статуса
type TransitionKind int

const (
	TransitionForward TransitionKind = iota
	TransitionSame
	TransitionReopen
	TransitionBackward
)

var statusOrder = map[Status]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusResolved:   2,
	StatusClosed:     3,
}

// ClassifyTransition сравнивает позиции статусов в цепочке pending → in-progress → resolved → closed.
// Любой переход разрешён; вызывающая сторона решает, что логировать.
func ClassifyTransition(from, to Status) TransitionKind {
	f, t := statusOrder[from], statusOrder[to]
	switch {
	case f == t:
		return TransitionSame
	case t > f:
		return TransitionForward
	case from.IsTerminal() && !to.IsTerminal():
		return TransitionReopen
	default:
		return TransitionBackward
	}
}

// StatusUpdate - изменение статуса с опциональным назначением волонтёра
type StatusUpdate struct {
	Status     Status
	AssignedTo *string
}
