package classifier

import (
	"context"
	"errors"
	"fmt"

	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/store"
)

// Task identifies one classification capability.
type Task string

const (
	TaskGate          Task = "gate"
	TaskRoute         Task = "route"
	TaskCatalogIntent Task = "catalog_intent"
	TaskTranslate     Task = "translate"
)

// ErrMalformed marks a response that did not satisfy the task's schema.
var ErrMalformed = errors.New("classifier response does not match schema")

// Error is the typed failure returned by every Classifier method.
type Error struct {
	Task Task
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Task, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(task Task, err error) error {
	return &Error{Task: task, Err: err}
}

// GateVerdict is the classifier's own opinion on a request. The gate decides
// how much of it to trust.
type GateVerdict struct {
	Blocked       bool
	PolicyMessage string
}

// IntentMode is the shape of a catalog question.
type IntentMode string

const (
	ModeByName             IntentMode = "by_name"
	ModeListByClass        IntentMode = "list_by_class"
	ModeListByIndications  IntentMode = "list_by_indications"
	ModeListByMechanism    IntentMode = "list_by_mechanism"
	ModeListByRoute        IntentMode = "list_by_route"
	ModeListByPregnancyCat IntentMode = "list_by_pregnancy_category"
)

var modeFields = map[IntentMode]store.CatalogField{
	ModeListByClass:        store.FieldClass,
	ModeListByIndications:  store.FieldIndications,
	ModeListByMechanism:    store.FieldMechanism,
	ModeListByRoute:        store.FieldRoute,
	ModeListByPregnancyCat: store.FieldPregnancy,
}

// Field returns the catalog field a list mode filters on.
func (m IntentMode) Field() (store.CatalogField, bool) {
	f, ok := modeFields[m]
	return f, ok
}

type CatalogIntent struct {
	Mode   IntentMode
	Target string
}

// Classifier is the black-box semantic classification port. One method per
// task; each returns a validated value or an *Error.
type Classifier interface {
	Gate(ctx context.Context, text string) (GateVerdict, error)
	Route(ctx context.Context, text string) (decision.RouteDecision, error)
	CatalogIntent(ctx context.Context, text string) (CatalogIntent, error)
	// Translate maps a local-language term to at most three English aliases.
	Translate(ctx context.Context, term string) ([]string, error)
}
