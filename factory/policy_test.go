package factory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledear/peopledear/factory"
	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/store/memory"
	"github.com/peopledear/peopledear/timeoff"
)

const yamlCatalog = `
types:
  - name: Vacation
    kind: vacation
    balance:
      annual_allowance: 22.5
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
`

func TestParseCatalog_YAML(t *testing.T) {
	f := factory.NewTypeFactory()

	entries, err := f.ParseCatalog([]byte(yamlCatalog), factory.FormatYAML)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	vacation := entries[0]
	assert.True(t, vacation.RequiresApproval, "approval defaults to required")
	assert.Equal(t, 22.5, vacation.AnnualAllowance)
	assert.True(t, vacation.CarryOverEnabled)
	assert.Equal(t, 5.0, vacation.CarryOverLimit)

	sick := entries[1]
	assert.False(t, sick.RequiresApproval)
	assert.True(t, sick.RequiresJustification)

	assert.Equal(t, 3, entries[2].MaxRequestsPerYear)
}

func TestParseCatalog_Errors(t *testing.T) {
	f := factory.NewTypeFactory()
	cases := map[string]string{
		"unknown kind":   `{"types": [{"name": "Sabbatical", "kind": "sabbatical"}]}`,
		"blank name":     `{"types": [{"name": "  ", "kind": "vacation"}]}`,
		"negative limit": `{"types": [{"name": "Vacation", "kind": "vacation", "balance": {"annual_allowance": -1}}]}`,
		"duplicate key":  `{"types": [{"name": "Sick Leave", "kind": "sick_leave"}, {"name": "sick leave", "kind": "sick_leave"}]}`,
		"mode for kind":  `{"types": [{"name": "Vacation", "kind": "vacation", "balance": {"mode": "none"}}]}`,
		"malformed":      `{"types": [`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ParseCatalog([]byte(body), factory.FormatJSON)
			assert.Error(t, err)
		})
	}

	_, err := f.ParseCatalog([]byte("types: []"), "toml")
	assert.Error(t, err)
}

func TestParseType_ValidationFields(t *testing.T) {
	_, err := factory.NewTypeFactory().ParseType(`{"name": "", "kind": "vacation"}`)
	require.ErrorIs(t, err, generic.ErrValidation)
	fields := generic.ValidationFields(err)
	require.NotEmpty(t, fields)
	assert.Equal(t, "name", fields[0].Field)
}

func TestLoadCatalog_PicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCatalog), 0o600))

	entries, err := factory.NewTypeFactory().LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	assert.Equal(t, factory.FormatJSON, factory.FormatOf("types.json"))
	assert.Equal(t, factory.FormatYAML, factory.FormatOf("TYPES.YAML"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "sick-leave", factory.Key("Sick leave"))
	assert.Equal(t, "sick-leave", factory.Key(" SickLeave "))
	assert.Equal(t, "personal-day", factory.Key("Personal Day"))
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewTypeFactory()
	in, err := f.ParseType(`{"name": "Vacation", "kind": "vacation", "balance": {"accrual_days_per_month": 1.5, "carry_over": {}}}`)
	require.NoError(t, err)
	typ := in.ToType("org-1")

	tj := f.ToJSON(typ)
	require.NotNil(t, tj.Balance)
	assert.Equal(t, "annual", tj.Balance.Mode)
	assert.Equal(t, 1.5, tj.Balance.AccrualDaysPerMonth)
	require.NotNil(t, tj.Balance.CarryOver)
	assert.Zero(t, tj.Balance.CarryOver.Limit)
	assert.Nil(t, tj.Limits)

	back, err := f.FromJSON(tj)
	require.NoError(t, err)
	assert.Equal(t, typ, back.ToType("org-1"))
}

func TestInstall_IsIdempotent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := timeoff.NewService(memory.New(), timeoff.WithLogger(logger))
	org, err := svc.CreateOrganization(context.Background(), "Acme")
	require.NoError(t, err)
	ctx := generic.WithOrganization(context.Background(), org.ID)
	f := factory.NewTypeFactory()

	first, err := f.Install(ctx, svc, f.DefaultInputs())
	require.NoError(t, err)
	require.Len(t, first, 4)

	// a second install with an edited allowance updates in place
	edited := f.DefaultInputs()
	edited[0].AnnualAllowance = 25
	second, err := f.Install(ctx, svc, edited)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	types, err := svc.ListTimeOffTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 4)
	for _, typ := range types {
		if typ.Kind == timeoff.KindVacation {
			assert.Equal(t, generic.DaysAmount(25), typ.Config.AnnualAllowance)
		}
	}
}

func TestInstall_AllOrNothing(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := timeoff.NewService(memory.New(), timeoff.WithLogger(logger))
	f := factory.NewTypeFactory()

	// GIVEN: another organization owns a type
	other, err := svc.CreateOrganization(context.Background(), "Globex")
	require.NoError(t, err)
	foreign, err := svc.SaveTimeOffType(generic.WithOrganization(context.Background(), other.ID),
		timeoff.TimeOffTypeInput{Kind: "sick_leave", Name: "Sick leave"})
	require.NoError(t, err)

	org, err := svc.CreateOrganization(context.Background(), "Acme")
	require.NoError(t, err)
	ctx := generic.WithOrganization(context.Background(), org.ID)

	// WHEN: the second catalog entry reuses that type's ID
	entries := f.DefaultInputs()
	entries[1].ID = foreign.ID
	_, err = f.Install(ctx, svc, entries)

	// THEN: the install fails and no entry is saved
	require.ErrorIs(t, err, generic.ErrDuplicate)
	types, err := svc.ListTimeOffTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)
}
