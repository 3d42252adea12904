// Package plan contiene el catálogo de planes de suscripción y las reglas de
// acceso por nivel (starter < business < pro < ultra < enterprise).
package plan

// Key identificador estable del plan.
type Key string

const (
	Starter    Key = "starter"
	Business   Key = "business"
	Pro        Key = "pro"
	Ultra      Key = "ultra"
	Enterprise Key = "enterprise"
)

// Plan describe un nivel de suscripción. MaxUsers 0 = usuarios ilimitados.
type Plan struct {
	Key             Key
	ProviderID      string // ID del plan en el proveedor de cobros (Whop)
	Name            string
	Level           int
	MonthlyInvoices int
	MaxUsers        int
	TrialDays       int
	PriceUSD        int
}

var catalogue = []Plan{
	{Key: Starter, ProviderID: "plan_H4B8kBzW7wyBb", Name: "Starter", Level: 1, MonthlyInvoices: 150, MaxUsers: 1, TrialDays: 30, PriceUSD: 9},
	{Key: Business, ProviderID: "plan_CtT9AiDSmoF2V", Name: "Business", Level: 2, MonthlyInvoices: 500, MaxUsers: 1, TrialDays: 7, PriceUSD: 19},
	{Key: Pro, ProviderID: "plan_NOdE4Vm9Koxaw", Name: "Pro", Level: 3, MonthlyInvoices: 1500, MaxUsers: 5, TrialDays: 3, PriceUSD: 39},
	{Key: Ultra, ProviderID: "plan_1MnCrXUhfZdoq", Name: "Ultra", Level: 4, MonthlyInvoices: 3000, MaxUsers: 15, TrialDays: 3, PriceUSD: 69},
	{Key: Enterprise, ProviderID: "plan_JyfZRWWZ06q2O", Name: "Enterprise", Level: 5, MonthlyInvoices: 6000, MaxUsers: 0, TrialDays: 3, PriceUSD: 99},
}

// All devuelve el catálogo ordenado de menor a mayor nivel.
func All() []Plan {
	out := make([]Plan, len(catalogue))
	copy(out, catalogue)
	return out
}

// ByKey busca un plan por su clave.
func ByKey(k Key) (Plan, bool) {
	for _, p := range catalogue {
		if p.Key == k {
			return p, true
		}
	}
	return Plan{}, false
}

// ByProviderID traduce el plan del proveedor de cobros al plan del catálogo.
func ByProviderID(id string) (Plan, bool) {
	if id == "" {
		return Plan{}, false
	}
	for _, p := range catalogue {
		if p.ProviderID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Meets informa si current alcanza el nivel de required. Una clave desconocida
// o vacía nunca cumple.
func Meets(current, required Key) bool {
	cur, ok := ByKey(current)
	if !ok {
		return false
	}
	req, ok := ByKey(required)
	if !ok {
		return false
	}
	return cur.Level >= req.Level
}

// AllowsInvoices informa si caben incoming facturas más sobre used este mes.
func (p Plan) AllowsInvoices(used, incoming int) bool {
	return used+incoming <= p.MonthlyInvoices
}

// AllowsUsers informa si el plan admite total usuarios.
func (p Plan) AllowsUsers(total int) bool {
	return p.MaxUsers == 0 || total <= p.MaxUsers
}
