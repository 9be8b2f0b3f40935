/*
Package factory converts time-off type catalogs into organization types.

PURPOSE:
  HR describes an organization's time-off types in a JSON or YAML
  catalog; the factory validates each entry and installs it through the
  service. Installing is idempotent: an entry updates the existing type
  whose name has the same key (its kebab-case slug), so a catalog can be
  re-applied after edits.

CATALOG SCHEMA (YAML shown, JSON uses the same keys):

  types:
    - name: Vacation
      kind: vacation
      requires_approval: true
      balance:
        annual_allowance: 22
        carry_over:
          limit: 5
    - name: Sick leave
      kind: sick_leave
      requires_approval: false
      requires_justification: true
    - name: Personal day
      kind: personal_day
      limits:
        max_requests_per_year: 3

DEFAULTS:
  - requires_approval is true when omitted
  - balance.mode is "annual" for vacation and "none" otherwise
  - carry_over without a limit carries every remaining day

USAGE:
  f := factory.NewTypeFactory()
  entries, err := f.LoadCatalog("types.yaml")
  types, err := f.Install(ctx, svc, entries)

SEE ALSO:
  - timeoff/validation.go: TimeOffTypeInput rules applied to every entry
  - api/scenarios.go: demo organizations built from DefaultCatalog
*/
package factory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/peopledear/peopledear/timeoff"
)

// =============================================================================
// CATALOG SCHEMA TYPES
// =============================================================================

// CatalogJSON is a list of type definitions.
type CatalogJSON struct {
	Types []TypeJSON `json:"types" yaml:"types"`
}

// TypeJSON is the catalog representation of a time-off type.
type TypeJSON struct {
	ID                    string       `json:"id,omitempty" yaml:"id,omitempty"`
	Name                  string       `json:"name" yaml:"name"`
	Kind                  string       `json:"kind" yaml:"kind"`
	RequiresApproval      *bool        `json:"requires_approval,omitempty" yaml:"requires_approval,omitempty"`
	RequiresJustification bool         `json:"requires_justification,omitempty" yaml:"requires_justification,omitempty"`
	Inactive              bool         `json:"inactive,omitempty" yaml:"inactive,omitempty"`
	Balance               *BalanceJSON `json:"balance,omitempty" yaml:"balance,omitempty"`
	Limits                *LimitsJSON  `json:"limits,omitempty" yaml:"limits,omitempty"`
}

// BalanceJSON configures the yearly vacation ledger.
type BalanceJSON struct {
	Mode                string         `json:"mode,omitempty" yaml:"mode,omitempty"`
	AnnualAllowance     float64        `json:"annual_allowance,omitempty" yaml:"annual_allowance,omitempty"`
	AccrualDaysPerMonth float64        `json:"accrual_days_per_month,omitempty" yaml:"accrual_days_per_month,omitempty"`
	CarryOver           *CarryOverJSON `json:"carry_over,omitempty" yaml:"carry_over,omitempty"`
}

// CarryOverJSON enables carry-over. A zero limit means no cap.
type CarryOverJSON struct {
	Limit float64 `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// LimitsJSON caps request size and frequency.
type LimitsJSON struct {
	MaxDaysPerRequest  float64 `json:"max_days_per_request,omitempty" yaml:"max_days_per_request,omitempty"`
	MaxRequestsPerYear int     `json:"max_requests_per_year,omitempty" yaml:"max_requests_per_year,omitempty"`
}

// Format is a catalog encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// TYPE FACTORY
// =============================================================================

// TypeFactory converts catalog entries into validated type inputs.
type TypeFactory struct{}

func NewTypeFactory() *TypeFactory {
	return &TypeFactory{}
}

// Key is the slug identifying a type by name within an organization.
func Key(name string) string {
	return strcase.ToKebab(strings.TrimSpace(name))
}

// ParseType parses a single JSON type definition.
func (f *TypeFactory) ParseType(jsonStr string) (timeoff.TimeOffTypeInput, error) {
	var tj TypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return timeoff.TimeOffTypeInput{}, errors.Wrap(err, "parse type JSON")
	}
	return f.FromJSON(tj)
}

// ParseCatalog decodes and validates every entry of a catalog. Two
// entries with the same key are rejected.
func (f *TypeFactory) ParseCatalog(data []byte, format Format) ([]timeoff.TimeOffTypeInput, error) {
	var cat CatalogJSON
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &cat)
	case FormatJSON:
		err = json.Unmarshal(data, &cat)
	default:
		return nil, errors.Errorf("unknown catalog format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s catalog", format)
	}

	seen := make(map[string]bool, len(cat.Types))
	out := make([]timeoff.TimeOffTypeInput, 0, len(cat.Types))
	for i, tj := range cat.Types {
		in, err := f.FromJSON(tj)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog entry %d (%s)", i, tj.Name)
		}
		key := Key(in.Name)
		if seen[key] {
			return nil, errors.Errorf("catalog entry %d: duplicate type %q", i, key)
		}
		seen[key] = true
		out = append(out, in)
	}
	return out, nil
}

// LoadCatalog reads and parses a catalog file.
func (f *TypeFactory) LoadCatalog(path string) ([]timeoff.TimeOffTypeInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return f.ParseCatalog(data, FormatOf(path))
}

// FromJSON applies the defaults and validates the entry.
func (f *TypeFactory) FromJSON(tj TypeJSON) (timeoff.TimeOffTypeInput, error) {
	in := timeoff.TimeOffTypeInput{
		ID:                    tj.ID,
		Kind:                  tj.Kind,
		Name:                  tj.Name,
		RequiresApproval:      true,
		RequiresJustification: tj.RequiresJustification,
		Inactive:              tj.Inactive,
	}
	if tj.RequiresApproval != nil {
		in.RequiresApproval = *tj.RequiresApproval
	}
	if b := tj.Balance; b != nil {
		in.BalanceMode = b.Mode
		in.AnnualAllowance = b.AnnualAllowance
		in.AccrualDaysPerMonth = b.AccrualDaysPerMonth
		if b.CarryOver != nil {
			in.CarryOverEnabled = true
			in.CarryOverLimit = b.CarryOver.Limit
		}
	}
	if l := tj.Limits; l != nil {
		in.MaxDaysPerRequest = l.MaxDaysPerRequest
		in.MaxRequestsPerYear = l.MaxRequestsPerYear
	}
	if err := in.Validate(); err != nil {
		return timeoff.TimeOffTypeInput{}, err
	}
	return in, nil
}

// ToJSON converts a stored type back into its catalog form.
func (f *TypeFactory) ToJSON(t timeoff.TimeOffType) TypeJSON {
	approval := t.RequiresApproval
	tj := TypeJSON{
		ID:                    t.ID,
		Name:                  t.Name,
		Kind:                  string(t.Kind),
		RequiresApproval:      &approval,
		RequiresJustification: t.RequiresJustification,
		Inactive:              !t.IsActive,
	}
	cfg := t.Config
	if t.BalanceMode == timeoff.BalanceAnnual {
		tj.Balance = &BalanceJSON{
			Mode:                string(t.BalanceMode),
			AnnualAllowance:     cfg.AnnualAllowance.Float(),
			AccrualDaysPerMonth: cfg.AccrualDaysPerMonth.Float(),
		}
		if cfg.CarryOverEnabled {
			tj.Balance.CarryOver = &CarryOverJSON{Limit: cfg.CarryOverLimit.Float()}
		}
	}
	if cfg.MaxDaysPerRequest > 0 || cfg.MaxRequestsPerYear > 0 {
		tj.Limits = &LimitsJSON{
			MaxDaysPerRequest:  cfg.MaxDaysPerRequest.Float(),
			MaxRequestsPerYear: cfg.MaxRequestsPerYear,
		}
	}
	return tj
}

// Install saves every entry for the organization on ctx in one
// transaction. An entry whose key matches an existing type updates that
// type. If any entry fails nothing is installed.
func (f *TypeFactory) Install(ctx context.Context, svc *timeoff.Service, entries []timeoff.TimeOffTypeInput) ([]timeoff.TimeOffType, error) {
	existing, err := svc.ListTimeOffTypes(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(existing))
	for _, t := range existing {
		ids[Key(t.Name)] = t.ID
	}

	keyed := make([]timeoff.TimeOffTypeInput, len(entries))
	for i, in := range entries {
		if in.ID == "" {
			in.ID = ids[Key(in.Name)]
		}
		keyed[i] = in
	}
	out, err := svc.SaveTimeOffTypes(ctx, keyed)
	if err != nil {
		return nil, errors.Wrap(err, "install catalog")
	}
	return out, nil
}

// =============================================================================
// PRESET CATALOG
// =============================================================================

func boolPtr(b bool) *bool { return &b }

// DefaultCatalog is the starter set offered to new organizations.
func DefaultCatalog() CatalogJSON {
	return CatalogJSON{Types: []TypeJSON{
		{
			Name: "Vacation", Kind: string(timeoff.KindVacation),
			Balance: &BalanceJSON{AnnualAllowance: 22, CarryOver: &CarryOverJSON{Limit: 5}},
		},
		{
			Name: "Sick leave", Kind: string(timeoff.KindSickLeave),
			RequiresApproval: boolPtr(false), RequiresJustification: true,
		},
		{
			Name: "Personal day", Kind: string(timeoff.KindPersonalDay),
			Limits: &LimitsJSON{MaxRequestsPerYear: 3},
		},
		{
			Name: "Bereavement", Kind: string(timeoff.KindBereavement),
			RequiresApproval: boolPtr(false),
			Limits:           &LimitsJSON{MaxDaysPerRequest: 5},
		},
	}}
}

// DefaultInputs returns DefaultCatalog as validated inputs.
func (f *TypeFactory) DefaultInputs() []timeoff.TimeOffTypeInput {
	cat := DefaultCatalog()
	out := make([]timeoff.TimeOffTypeInput, 0, len(cat.Types))
	for _, tj := range cat.Types {
		in, err := f.FromJSON(tj)
		if err != nil {
			panic("factory: invalid default catalog: " + err.Error())
		}
		out = append(out, in)
	}
	return out
}
