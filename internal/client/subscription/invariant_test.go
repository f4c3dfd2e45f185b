package subscription

import (
	"fmt"
	"testing"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type op struct {
	kind int
	id   int
	def  bool
}

func genOp() gopter.Gen {
	return gopter.CombineGens(gen.IntRange(0, 3), gen.IntRange(0, 4), gen.Bool()).Map(func(v []any) op {
		return op{kind: v[0].(int), id: v[1].(int), def: v[2].(bool)}
	})
}

func defaults(methods []models.PaymentMethod) int {
	n := 0
	for _, pm := range methods {
		if pm.IsDefault {
			n++
		}
	}
	return n
}

func TestPaymentMethods_DefaultExclusivity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-empty lists have exactly one default", prop.ForAll(
		func(ops []op) bool {
			m := NewManager(Options{})
			for _, o := range ops {
				id := fmt.Sprintf("pm-%d", o.id)
				switch o.kind {
				case 0:
					m.AddPaymentMethod(models.PaymentMethod{ID: id, IsDefault: o.def})
				case 1:
					m.RemovePaymentMethod(id)
				case 2:
					m.SetDefaultPaymentMethod(id)
				case 3:
					m.SetPaymentMethods([]models.PaymentMethod{
						{ID: id, IsDefault: o.def},
						{ID: id + "-b", IsDefault: o.def},
					})
				}

				methods := m.Snapshot().PaymentMethods
				want := 1
				if len(methods) == 0 {
					want = 0
				}
				if defaults(methods) != want {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genOp()),
	))

	properties.TestingRun(t)
}
