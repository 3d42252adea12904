package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contablebot/portal-api/internal/domain/plan"
)

func TestMeets_Jerarquia(t *testing.T) {
	cases := []struct {
		current, required plan.Key
		want              bool
	}{
		{plan.Starter, plan.Starter, true},
		{plan.Starter, plan.Business, false},
		{plan.Business, plan.Business, true},
		{plan.Pro, plan.Business, true},
		{plan.Enterprise, plan.Ultra, true},
		{plan.Ultra, plan.Enterprise, false},
		{"", plan.Starter, false},
		{"gratis", plan.Starter, false},
		{plan.Pro, "inexistente", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, plan.Meets(tc.current, tc.required), "%s >= %s", tc.current, tc.required)
	}
}

func TestByProviderID(t *testing.T) {
	p, ok := plan.ByProviderID("plan_NOdE4Vm9Koxaw")
	require.True(t, ok)
	assert.Equal(t, plan.Pro, p.Key)
	assert.Equal(t, 1500, p.MonthlyInvoices)

	_, ok = plan.ByProviderID("")
	assert.False(t, ok)
	_, ok = plan.ByProviderID("plan_desconocido")
	assert.False(t, ok)
}

func TestAll_OrdenadoPorNivel(t *testing.T) {
	all := plan.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Level, all[i].Level)
	}
	all[0].Name = "modificado"
	again, _ := plan.ByKey(plan.Starter)
	assert.Equal(t, "Starter", again.Name, "All devuelve una copia")
}

func TestLimites(t *testing.T) {
	starter, _ := plan.ByKey(plan.Starter)
	assert.True(t, starter.AllowsInvoices(140, 10))
	assert.False(t, starter.AllowsInvoices(145, 10))
	assert.True(t, starter.AllowsUsers(1))
	assert.False(t, starter.AllowsUsers(2))

	enterprise, _ := plan.ByKey(plan.Enterprise)
	assert.True(t, enterprise.AllowsUsers(500))
}
