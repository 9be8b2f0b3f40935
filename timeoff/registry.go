package timeoff

import "fmt"

// =============================================================================
// REGISTRY - Kind to strategy mapping
// =============================================================================

// Registry resolves the processor and validator for a kind. Lookups of an
// unmapped kind are programming errors and panic.
type Registry struct {
	processors map[TypeKind]Processor
	validators map[TypeKind]TypeValidator
}

// NewRegistry returns a registry holding every built-in kind.
func NewRegistry() *Registry {
	r := &Registry{
		processors: make(map[TypeKind]Processor),
		validators: make(map[TypeKind]TypeValidator),
	}
	r.Register(KindVacation, VacationProcessor{}, VacationValidator{})
	r.Register(KindSickLeave, StatusProcessor{}, SickLeaveValidator{})
	r.Register(KindPersonalDay, StatusProcessor{}, PersonalDayValidator{})
	r.Register(KindBereavement, StatusProcessor{}, BereavementValidator{})
	return r
}

// Register maps kind to its strategies, replacing any previous mapping.
func (r *Registry) Register(kind TypeKind, p Processor, v TypeValidator) {
	r.processors[kind] = p
	r.validators[kind] = v
}

// Processor returns the processor for kind. Panics if unmapped.
func (r *Registry) Processor(kind TypeKind) Processor {
	p, ok := r.processors[kind]
	if !ok {
		panic(fmt.Sprintf("timeoff: no processor registered for kind %q", kind))
	}
	return p
}

// Validator returns the validator for kind. Panics if unmapped.
func (r *Registry) Validator(kind TypeKind) TypeValidator {
	v, ok := r.validators[kind]
	if !ok {
		panic(fmt.Sprintf("timeoff: no validator registered for kind %q", kind))
	}
	return v
}
